// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/gizzahub/gzh-cli-machete/pkg/git"
	"github.com/gizzahub/gzh-cli-machete/pkg/layout"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// fakeGit is an in-memory implementation of the Git interface: a commit
// DAG plus branch pointers, reflogs and config, with mutations recorded
// for assertions.
type fakeGit struct {
	seq            int
	commitParents  map[refs.CommitHash][]refs.CommitHash
	commitOrder    map[refs.CommitHash]int
	commitSubjects map[refs.CommitHash]string
	trees          map[refs.CommitHash]refs.TreeHash
	timestamps     map[refs.CommitHash]int64

	branches       map[refs.LocalBranch]refs.CommitHash
	branchList     []refs.LocalBranch
	remoteBranches map[refs.RemoteBranch]refs.CommitHash
	remoteList     []refs.RemoteBranch
	counterparts   map[refs.LocalBranch]refs.RemoteBranch
	removedFromRem map[refs.LocalBranch]bool
	reflogs        map[string][]git.ReflogEntry
	config         map[string]string
	remotes        []string
	currentBranch  refs.LocalBranch

	checkouts []string
	pushes    []string
	rebases   []string
	merges    []string
	deleted   []string
	pulls     []string
	resets    []string
	ffMerges  []string
}

func newFakeGit() *fakeGit {
	return &fakeGit{
		commitParents:  map[refs.CommitHash][]refs.CommitHash{},
		commitOrder:    map[refs.CommitHash]int{},
		commitSubjects: map[refs.CommitHash]string{},
		trees:          map[refs.CommitHash]refs.TreeHash{},
		timestamps:     map[refs.CommitHash]int64{},
		branches:       map[refs.LocalBranch]refs.CommitHash{},
		remoteBranches: map[refs.RemoteBranch]refs.CommitHash{},
		counterparts:   map[refs.LocalBranch]refs.RemoteBranch{},
		removedFromRem: map[refs.LocalBranch]bool{},
		reflogs:        map[string][]git.ReflogEntry{},
		config:         map[string]string{},
	}
}

// commit registers a new commit on top of the given parents.
func (f *fakeGit) commit(subject string, parents ...refs.CommitHash) refs.CommitHash {
	f.seq++
	hash := refs.CommitHash(fmt.Sprintf("%040x", f.seq))
	f.commitParents[hash] = parents
	f.commitOrder[hash] = f.seq
	f.commitSubjects[hash] = subject
	f.trees[hash] = refs.TreeHash("tree-" + string(hash))
	f.timestamps[hash] = int64(1700000000 + f.seq)
	return hash
}

func (f *fakeGit) setBranch(branch refs.LocalBranch, tip refs.CommitHash) {
	if _, known := f.branches[branch]; !known {
		f.branchList = append(f.branchList, branch)
	}
	f.branches[branch] = tip
}

func (f *fakeGit) setRemoteBranch(branch refs.RemoteBranch, tip refs.CommitHash) {
	if _, known := f.remoteBranches[branch]; !known {
		f.remoteList = append(f.remoteList, branch)
	}
	f.remoteBranches[branch] = tip
}

// appendReflog prepends an entry (reflogs are latest-first).
func (f *fakeGit) appendReflog(ref refs.Revision, hash refs.CommitHash, subject string) {
	f.reflogs[ref.String()] = append([]git.ReflogEntry{{Hash: hash, Subject: subject}},
		f.reflogs[ref.String()]...)
}

func (f *fakeGit) resolve(revision refs.Revision) (refs.CommitHash, bool) {
	value := revision.String()
	if strings.HasPrefix(value, "refs/heads/") {
		tip, ok := f.branches[refs.LocalRef(value).Branch()]
		return tip, ok
	}
	if strings.HasPrefix(value, "refs/remotes/") {
		tip, ok := f.remoteBranches[refs.RemoteRef(value).Branch()]
		return tip, ok
	}
	if value == "HEAD" {
		tip, ok := f.branches[f.currentBranch]
		return tip, ok
	}
	if _, known := f.commitOrder[refs.CommitHash(value)]; known {
		return refs.CommitHash(value), true
	}
	// Short names are also accepted, like git itself does.
	if tip, ok := f.branches[refs.LocalBranch(value)]; ok {
		return tip, true
	}
	if tip, ok := f.remoteBranches[refs.RemoteBranch(value)]; ok {
		return tip, true
	}
	return "", false
}

func (f *fakeGit) ancestors(hash refs.CommitHash) map[refs.CommitHash]bool {
	result := map[refs.CommitHash]bool{}
	queue := []refs.CommitHash{hash}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if result[current] {
			continue
		}
		result[current] = true
		queue = append(queue, f.commitParents[current]...)
	}
	return result
}

// --- repository info ---

func (f *fakeGit) RootDir(ctx context.Context) (string, error)    { return "/fake", nil }
func (f *fakeGit) GitDir(ctx context.Context) (string, error)     { return "/fake/.git", nil }
func (f *fakeGit) MainGitDir(ctx context.Context) (string, error) { return "/fake/.git", nil }

func (f *fakeGit) InProgressOperationOrNone(ctx context.Context) (git.InProgressOperation, error) {
	return git.OpNone, nil
}

func (f *fakeGit) CurrentBranch(ctx context.Context) (refs.LocalBranch, error) {
	if f.currentBranch == "" {
		return "", fmt.Errorf("HEAD is detached")
	}
	return f.currentBranch, nil
}

func (f *fakeGit) CurrentBranchOrNone(ctx context.Context) (refs.LocalBranch, bool) {
	return f.currentBranch, f.currentBranch != ""
}

func (f *fakeGit) CurrentlyRebasedBranch(ctx context.Context) (refs.LocalBranch, bool) {
	return "", false
}

func (f *fakeGit) CurrentlyBisectedBranch(ctx context.Context) (refs.LocalBranch, bool) {
	return "", false
}

// --- branches ---

func (f *fakeGit) LocalBranches(ctx context.Context) ([]refs.LocalBranch, error) {
	return f.branchList, nil
}

func (f *fakeGit) RemoteBranches(ctx context.Context) ([]refs.RemoteBranch, error) {
	return f.remoteList, nil
}

func (f *fakeGit) HasLocalBranch(ctx context.Context, branch refs.LocalBranch) (bool, error) {
	_, ok := f.branches[branch]
	return ok, nil
}

func (f *fakeGit) StrictCounterpart(ctx context.Context, branch refs.LocalBranch) (refs.RemoteBranch, bool, error) {
	counterpart, ok := f.counterparts[branch]
	return counterpart, ok, nil
}

func (f *fakeGit) CombinedCounterpart(ctx context.Context, branch refs.LocalBranch) (refs.RemoteBranch, bool, error) {
	if counterpart, ok := f.counterparts[branch]; ok {
		return counterpart, true, nil
	}
	var found refs.RemoteBranch
	count := 0
	for _, remote := range f.remotes {
		candidate := refs.RemoteBranch(remote + "/" + branch.String())
		if _, ok := f.remoteBranches[candidate]; ok {
			found = candidate
			count++
		}
	}
	if count == 1 {
		return found, true, nil
	}
	return "", false, nil
}

func (f *fakeGit) CombinedRemote(ctx context.Context, branch refs.LocalBranch) (string, bool, error) {
	counterpart, ok, err := f.CombinedCounterpart(ctx, branch)
	if err != nil || !ok {
		return "", false, err
	}
	remote, _ := counterpart.Split()
	return remote, true, nil
}

func (f *fakeGit) RemotesContaining(ctx context.Context, branch refs.LocalBranch) ([]string, error) {
	var result []string
	for _, remote := range f.remotes {
		if _, ok := f.remoteBranches[refs.RemoteBranch(remote+"/"+branch.String())]; ok {
			result = append(result, remote)
		}
	}
	return result, nil
}

func (f *fakeGit) IsRemovedFromRemote(ctx context.Context, branch refs.LocalBranch) (bool, error) {
	return f.removedFromRem[branch], nil
}

// --- history ---

func (f *fakeGit) CommitHashByRevision(ctx context.Context, revision refs.Revision) (refs.CommitHash, bool, error) {
	hash, ok := f.resolve(revision)
	return hash, ok, nil
}

func (f *fakeGit) TreeHashByRevision(ctx context.Context, revision refs.Revision) (refs.TreeHash, bool, error) {
	hash, ok := f.resolve(revision)
	if !ok {
		return "", false, nil
	}
	return f.trees[hash], true, nil
}

func (f *fakeGit) ShortCommitHashByRevision(ctx context.Context, revision refs.Revision) (refs.ShortCommitHash, error) {
	hash, ok := f.resolve(revision)
	if !ok {
		return "", fmt.Errorf("unknown revision %s", revision)
	}
	return hash.Short(), nil
}

func (f *fakeGit) CommitterTimestampByRevision(ctx context.Context, revision refs.Revision) (int64, error) {
	hash, ok := f.resolve(revision)
	if !ok {
		return 0, nil
	}
	return f.timestamps[hash], nil
}

func (f *fakeGit) IsAncestorOrEqual(ctx context.Context, earlier, later refs.Revision) (bool, error) {
	earlierHash, ok := f.resolve(earlier)
	if !ok {
		return false, nil
	}
	laterHash, ok := f.resolve(later)
	if !ok {
		return false, nil
	}
	return f.ancestors(laterHash)[earlierHash], nil
}

func (f *fakeGit) MergeBase(ctx context.Context, a, b refs.Revision) (refs.CommitHash, bool, error) {
	hashA, okA := f.resolve(a)
	hashB, okB := f.resolve(b)
	if !okA || !okB {
		return "", false, nil
	}
	ancestorsA := f.ancestors(hashA)
	var best refs.CommitHash
	bestOrder := -1
	for ancestor := range f.ancestors(hashB) {
		if ancestorsA[ancestor] && f.commitOrder[ancestor] > bestOrder {
			best = ancestor
			bestOrder = f.commitOrder[ancestor]
		}
	}
	return best, bestOrder >= 0, nil
}

func (f *fakeGit) CommitsBetween(ctx context.Context, earliestExclusive, latestInclusive refs.Revision) ([]git.Commit, error) {
	latest, ok := f.resolve(latestInclusive)
	if !ok {
		return nil, nil
	}
	exclude := map[refs.CommitHash]bool{}
	if earliest, ok := f.resolve(earliestExclusive); ok {
		exclude = f.ancestors(earliest)
	}
	var hashes []refs.CommitHash
	for hash := range f.ancestors(latest) {
		if !exclude[hash] {
			hashes = append(hashes, hash)
		}
	}
	// Oldest first.
	for i := 0; i < len(hashes); i++ {
		for j := i + 1; j < len(hashes); j++ {
			if f.commitOrder[hashes[j]] < f.commitOrder[hashes[i]] {
				hashes[i], hashes[j] = hashes[j], hashes[i]
			}
		}
	}
	commits := make([]git.Commit, 0, len(hashes))
	for _, hash := range hashes {
		commits = append(commits, git.Commit{
			Hash:      hash,
			ShortHash: hash.Short(),
			Subject:   f.commitSubjects[hash],
		})
	}
	return commits, nil
}

func (f *fakeGit) CommitMessageByRevision(ctx context.Context, revision refs.Revision) (string, error) {
	hash, ok := f.resolve(revision)
	if !ok {
		return "", fmt.Errorf("unknown revision %s", revision)
	}
	return f.commitSubjects[hash], nil
}

func (f *fakeGit) LogHashes(ctx context.Context, tip refs.CommitHash, maxCount int) ([]refs.CommitHash, error) {
	var hashes []refs.CommitHash
	for hash := range f.ancestors(tip) {
		hashes = append(hashes, hash)
	}
	// Newest first.
	for i := 0; i < len(hashes); i++ {
		for j := i + 1; j < len(hashes); j++ {
			if f.commitOrder[hashes[j]] > f.commitOrder[hashes[i]] {
				hashes[i], hashes[j] = hashes[j], hashes[i]
			}
		}
	}
	if maxCount > 0 && len(hashes) > maxCount {
		hashes = hashes[:maxCount]
	}
	return hashes, nil
}

func (f *fakeGit) IsEquivalentTreeReachable(ctx context.Context, equivalentTo, reachableFrom refs.Revision) (bool, error) {
	equivalentToHash, ok := f.resolve(equivalentTo)
	if !ok {
		return false, nil
	}
	reachableFromHash, ok := f.resolve(reachableFrom)
	if !ok {
		return false, nil
	}
	if equivalentToHash == reachableFromHash {
		return true, nil
	}
	exclude := f.ancestors(equivalentToHash)
	tree := f.trees[equivalentToHash]
	for hash := range f.ancestors(reachableFromHash) {
		if !exclude[hash] && f.trees[hash] == tree {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeGit) IsEquivalentPatchReachable(ctx context.Context, equivalentTo, reachableFrom refs.Revision) (bool, error) {
	return f.IsEquivalentTreeReachable(ctx, equivalentTo, reachableFrom)
}

// --- reflogs ---

func (f *fakeGit) Reflog(ctx context.Context, ref refs.Revision) ([]git.ReflogEntry, error) {
	return f.reflogs[ref.String()], nil
}

func (f *fakeGit) LatestCheckoutTimestamps(ctx context.Context) (map[string]int64, error) {
	result := map[string]int64{}
	for branch, tip := range f.branches {
		result[branch.String()] = f.timestamps[tip]
	}
	return result, nil
}

func (f *fakeGit) UnixTimestampFromTimespec(ctx context.Context, spec string) (int64, error) {
	return 0, fmt.Errorf("timespecs not supported by fake")
}

// --- remotes ---

func (f *fakeGit) Remotes(ctx context.Context) ([]string, error) { return f.remotes, nil }

func (f *fakeGit) RemoteURL(ctx context.Context, remote string) (string, error) {
	return f.config["remote."+remote+".url"], nil
}

func (f *fakeGit) AddRemote(ctx context.Context, remote, url string) error {
	f.remotes = append(f.remotes, remote)
	f.config["remote."+remote+".url"] = url
	return nil
}

func (f *fakeGit) Fetch(ctx context.Context, remote string) error           { return nil }
func (f *fakeGit) FetchRefspec(ctx context.Context, remote, refspec string) error { return nil }

func (f *fakeGit) Push(ctx context.Context, remote string, branch refs.LocalBranch, opts git.PushOptions) error {
	suffix := ""
	if opts.ForceWithLease {
		suffix = " (force-with-lease)"
	}
	f.pushes = append(f.pushes, remote+"/"+branch.String()+suffix)
	remoteBranch := refs.RemoteBranch(remote + "/" + branch.String())
	f.setRemoteBranch(remoteBranch, f.branches[branch])
	f.counterparts[branch] = remoteBranch
	return nil
}

func (f *fakeGit) PushRefspec(ctx context.Context, remote, refspec string) error { return nil }

func (f *fakeGit) DeleteRemoteBranch(ctx context.Context, remote string, branch refs.LocalBranch) error {
	delete(f.remoteBranches, refs.RemoteBranch(remote+"/"+branch.String()))
	return nil
}

func (f *fakeGit) PullFFOnly(ctx context.Context, remote string, remoteBranch refs.RemoteBranch) error {
	f.pulls = append(f.pulls, remoteBranch.String())
	f.setBranch(f.currentBranch, f.remoteBranches[remoteBranch])
	return nil
}

func (f *fakeGit) RemoteBranchExists(ctx context.Context, remote string, branch refs.LocalBranch) (bool, error) {
	_, ok := f.remoteBranches[refs.RemoteBranch(remote+"/"+branch.String())]
	return ok, nil
}

// --- config ---

func (f *fakeGit) ConfigValue(ctx context.Context, key string) (string, bool, error) {
	value, ok := f.config[key]
	return value, ok, nil
}

func (f *fakeGit) BoolConfig(ctx context.Context, key string, defaultValue bool) (bool, error) {
	value, ok := f.config[key]
	if !ok {
		return defaultValue, nil
	}
	return value == "true" || value == "yes" || value == "on" || value == "1", nil
}

func (f *fakeGit) SetConfig(ctx context.Context, key, value string) error {
	f.config[key] = value
	return nil
}

func (f *fakeGit) UnsetConfig(ctx context.Context, key string) error {
	delete(f.config, key)
	return nil
}

// --- mutations ---

func (f *fakeGit) Checkout(ctx context.Context, branch refs.LocalBranch) error {
	f.checkouts = append(f.checkouts, branch.String())
	f.currentBranch = branch
	return nil
}

func (f *fakeGit) CreateBranch(ctx context.Context, branch refs.LocalBranch, revision refs.Revision, switchHead bool) error {
	tip, ok := f.resolve(revision)
	if !ok {
		return fmt.Errorf("unknown revision %s", revision)
	}
	f.setBranch(branch, tip)
	if switchHead {
		f.currentBranch = branch
	}
	return nil
}

func (f *fakeGit) CreateBranchFromRemote(ctx context.Context, branch refs.LocalBranch, remoteBranch refs.RemoteBranch) error {
	tip, ok := f.remoteBranches[remoteBranch]
	if !ok {
		return fmt.Errorf("unknown remote branch %s", remoteBranch)
	}
	f.setBranch(branch, tip)
	f.counterparts[branch] = remoteBranch
	f.currentBranch = branch
	return nil
}

func (f *fakeGit) DeleteBranch(ctx context.Context, branch refs.LocalBranch, force bool) error {
	f.deleted = append(f.deleted, branch.String())
	delete(f.branches, branch)
	for i, b := range f.branchList {
		if b == branch {
			f.branchList = append(f.branchList[:i], f.branchList[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeGit) ResetKeep(ctx context.Context, revision refs.Revision) error {
	f.resets = append(f.resets, revision.String())
	tip, ok := f.resolve(revision)
	if !ok {
		return fmt.Errorf("unknown revision %s", revision)
	}
	f.setBranch(f.currentBranch, tip)
	return nil
}

// Rebase replays the branch as a single new commit on top of onto;
// enough fidelity for traversal tests.
func (f *fakeGit) Rebase(ctx context.Context, onto, fromExclusive refs.Revision,
	branch refs.LocalBranch, opts git.RebaseOptions) error {
	f.rebases = append(f.rebases, fmt.Sprintf("%s onto %s from %s", branch, onto, fromExclusive))
	ontoHash, ok := f.resolve(onto)
	if !ok {
		return fmt.Errorf("unknown revision %s", onto)
	}
	newTip := f.commit("rebased: "+branch.String(), ontoHash)
	f.trees[newTip] = f.trees[f.branches[branch]]
	f.setBranch(branch, newTip)
	f.appendReflog(branch.Ref().Revision(), newTip, "rebase (finish): returning to "+branch.Ref().String())
	return nil
}

func (f *fakeGit) Merge(ctx context.Context, branch refs.LocalBranch, opts git.MergeOptions) error {
	f.merges = append(f.merges, branch.String()+" into "+f.currentBranch.String())
	newTip := f.commit("Merge branch '"+branch.String()+"'",
		f.branches[f.currentBranch], f.branches[branch])
	f.setBranch(f.currentBranch, newTip)
	f.appendReflog(f.currentBranch.Ref().Revision(), newTip, "merge "+branch.String())
	return nil
}

func (f *fakeGit) MergeFFOnly(ctx context.Context, branch refs.LocalBranch) error {
	f.ffMerges = append(f.ffMerges, branch.String())
	isAncestor, _ := f.IsAncestorOrEqual(ctx, f.currentBranch.Revision(), branch.Revision())
	if !isAncestor {
		return fmt.Errorf("not possible to fast-forward")
	}
	f.setBranch(f.currentBranch, f.branches[branch])
	return nil
}

func (f *fakeGit) CommitTree(ctx context.Context, tree refs.TreeHash, parent refs.CommitHash,
	message string, env []string) (refs.CommitHash, error) {
	hash := f.commit(message, parent)
	f.trees[hash] = tree
	return hash, nil
}

func (f *fakeGit) UpdateRef(ctx context.Context, ref refs.Revision, newValue refs.CommitHash, subject string) error {
	if ref == "HEAD" {
		f.setBranch(f.currentBranch, newValue)
		f.appendReflog(f.currentBranch.Ref().Revision(), newValue, subject)
		return nil
	}
	return fmt.Errorf("fake UpdateRef supports only HEAD")
}

func (f *fakeGit) AuthorIdentityByRevision(ctx context.Context, revision refs.Revision) (git.AuthorIdentity, error) {
	return git.AuthorIdentity{Name: "Test", Email: "test@test.com", Date: "2024-01-01 00:00:00 +0000"}, nil
}

func (f *fakeGit) DisplayDiff(ctx context.Context, forkPoint refs.Revision, branch refs.LocalBranch, extraArgs ...string) error {
	return nil
}

func (f *fakeGit) DisplayLog(ctx context.Context, branch refs.LocalBranch, forkPoint refs.Revision, extraArgs ...string) error {
	return nil
}

// --- hooks and editor ---

func (f *fakeGit) HookPath(ctx context.Context, name string) (string, error) {
	return "/fake/.git/hooks/" + name, nil
}

func (f *fakeGit) RunHook(ctx context.Context, hookPath, dir string, env []string, args ...string) (int, error) {
	return 0, nil
}

func (f *fakeGit) RunHookCaptured(ctx context.Context, hookPath, dir string, env []string, args ...string) (int, string, error) {
	return -1, "", nil
}

func (f *fakeGit) RunEditor(ctx context.Context, path string) error { return nil }

func (f *fakeGit) Flush() {}

// newTestState wires a State around a fake gateway, with output
// captured and the layout file stored in a temp dir.
func newTestState(t *testing.T, f *fakeGit) (*State, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	state := NewState(f)
	state.Out = &out
	state.ErrOut = &out
	state.LayoutPath = t.TempDir() + "/machete"
	state.Yes = true
	return state, &out
}

func mustParseLayout(t *testing.T, text string) *layout.Layout {
	t.Helper()
	l, err := layout.Parse(text)
	if err != nil {
		t.Fatalf("Parse(%q): %v", text, err)
	}
	return l
}
