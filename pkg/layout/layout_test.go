// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package layout

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

func branches(names ...string) []refs.LocalBranch {
	result := make([]refs.LocalBranch, len(names))
	for i, n := range names {
		result[i] = refs.LocalBranch(n)
	}
	return result
}

func TestParseSimpleTree(t *testing.T) {
	text := "develop\n" +
		"  allow-ownership-link PR #123\n" +
		"    build-chain\n" +
		"  call-ws rebase=no\n" +
		"master\n" +
		"  hotfix/add-trigger\n"

	l, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if !reflect.DeepEqual(l.Roots(), branches("develop", "master")) {
		t.Errorf("Roots = %v", l.Roots())
	}
	wantManaged := branches("develop", "allow-ownership-link", "build-chain", "call-ws", "master", "hotfix/add-trigger")
	if !reflect.DeepEqual(l.Managed(), wantManaged) {
		t.Errorf("Managed = %v", l.Managed())
	}
	if p, _ := l.Parent("build-chain"); p != "allow-ownership-link" {
		t.Errorf("Parent(build-chain) = %v", p)
	}
	if !reflect.DeepEqual(l.Children("develop"), branches("allow-ownership-link", "call-ws")) {
		t.Errorf("Children(develop) = %v", l.Children("develop"))
	}
	if a, ok := l.Annotation("allow-ownership-link"); !ok || a.Text != "PR #123" {
		t.Errorf("Annotation(allow-ownership-link) = %+v, %v", a, ok)
	}
	if q := l.Qualifiers("call-ws"); q.Rebase {
		t.Error("call-ws should have rebase=no")
	}
	if q := l.Qualifiers("develop"); !q.IsDefault() {
		t.Error("develop should have default qualifiers")
	}
}

func TestParseTabIndent(t *testing.T) {
	l, err := Parse("master\n\tfeature\n\t\tchild\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if l.Indent() != "\t" {
		t.Errorf("Indent = %q", l.Indent())
	}
	if p, _ := l.Parent("child"); p != "feature" {
		t.Errorf("Parent(child) = %v", p)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantLine int
		wantMsg  string
	}{
		{"duplicate branch", "master\n  x\n  x\n", 3, "re-appears"},
		{"depth jump", "master\n    x\n            z\n", 3, "too much indent"},
		{"inconsistent indent", "master\n  a\n   b\n", 3, "invalid indent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err, tt.wantMsg)
			}
			if tt.wantLine != 0 {
				var parseErr *ParseError
				if !errorAs(err, &parseErr) || parseErr.Line != tt.wantLine {
					t.Errorf("error line = %v, want %d", err, tt.wantLine)
				}
			}
		})
	}
}

func errorAs(err error, target **ParseError) bool {
	pe, ok := err.(*ParseError)
	if ok {
		*target = pe
	}
	return ok
}

func TestParseDepthJumpWithinUnit(t *testing.T) {
	// Indent unit is discovered as two spaces from the first indented
	// line; a jump straight to depth 2 must be rejected.
	_, err := Parse("master\n  a\nother\n    b\n")
	if err == nil {
		t.Fatal("expected error for depth jump after a root")
	}
	if !strings.Contains(err.Error(), "too much indent") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	texts := []string{
		"develop\n",
		"develop\n  feature\n",
		"develop\n  feature PR #1 rebase=no\n    deeper\n  other\nmaster\n",
		"master\n\tfeature note\n\t\tchild push=no\n",
	}
	for _, text := range texts {
		l, err := Parse(text)
		if err != nil {
			t.Fatalf("Parse(%q): %v", text, err)
		}
		if got := l.Render(); got != text {
			t.Errorf("Render() = %q, want %q", got, text)
		}
	}
}

func TestParseRenderParse(t *testing.T) {
	text := "develop\n  a x rebase=no\n    b\n  c\nmaster\n"
	l1, err := Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	l2, err := Parse(l1.Render())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(l1.Managed(), l2.Managed()) {
		t.Errorf("managed differ: %v vs %v", l1.Managed(), l2.Managed())
	}
	if !reflect.DeepEqual(l1.Roots(), l2.Roots()) {
		t.Errorf("roots differ")
	}
	for _, b := range l1.Managed() {
		p1, ok1 := l1.Parent(b)
		p2, ok2 := l2.Parent(b)
		if p1 != p2 || ok1 != ok2 {
			t.Errorf("parent of %s differs", b)
		}
		a1, _ := l1.Annotation(b)
		a2, _ := l2.Annotation(b)
		if a1 != a2 {
			t.Errorf("annotation of %s differs", b)
		}
	}
}

func TestSlideOutMiddleBranch(t *testing.T) {
	l, err := Parse("a\n  b\n    c\n    d\n  e\n")
	if err != nil {
		t.Fatal(err)
	}
	l.SlideOut("b")

	if l.IsManaged("b") {
		t.Error("b still managed after slide-out")
	}
	if !reflect.DeepEqual(l.Children("a"), branches("c", "d", "e")) {
		t.Errorf("Children(a) = %v", l.Children("a"))
	}
	for _, child := range branches("c", "d") {
		if p, _ := l.Parent(child); p != "a" {
			t.Errorf("Parent(%s) = %v, want a", child, p)
		}
	}
}

func TestSlideOutRoot(t *testing.T) {
	l, err := Parse("a\n  b\n  c\nz\n")
	if err != nil {
		t.Fatal(err)
	}
	l.SlideOut("a")

	if !reflect.DeepEqual(l.Roots(), branches("b", "c", "z")) {
		t.Errorf("Roots = %v", l.Roots())
	}
	if _, ok := l.Parent("b"); ok {
		t.Error("b should have no parent after its root slid out")
	}
}

func TestSlideOutLeaf(t *testing.T) {
	l, err := Parse("a\n  b\n  c\n")
	if err != nil {
		t.Fatal(err)
	}
	l.SlideOut("b")
	if !reflect.DeepEqual(l.Children("a"), branches("c")) {
		t.Errorf("Children(a) = %v", l.Children("a"))
	}
}

func TestAttach(t *testing.T) {
	l, err := Parse("a\n  b\n")
	if err != nil {
		t.Fatal(err)
	}
	l.Attach("a", "c", false)
	if !reflect.DeepEqual(l.Children("a"), branches("b", "c")) {
		t.Errorf("Children(a) = %v", l.Children("a"))
	}
	l.Attach("a", "first", true)
	if !reflect.DeepEqual(l.Children("a"), branches("first", "b", "c")) {
		t.Errorf("Children(a) = %v", l.Children("a"))
	}
}

func TestLoadMissingFileYieldsEmptyLayout(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "machete"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(l.Managed()) != 0 {
		t.Errorf("Managed = %v, want empty", l.Managed())
	}
}

func TestSaveAndBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "machete")

	l, err := Parse("master\n  feature\n")
	if err != nil {
		t.Fatal(err)
	}
	if err := Save(path, l, false); err != nil {
		t.Fatalf("Save: %v", err)
	}

	l.SlideOut("feature")
	if err := Save(path, l, true); err != nil {
		t.Fatalf("Save with backup: %v", err)
	}

	backup, err := os.ReadFile(path + "~")
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	if string(backup) != "master\n  feature\n" {
		t.Errorf("backup content = %q", backup)
	}
	current, _ := os.ReadFile(path)
	if string(current) != "master\n" {
		t.Errorf("current content = %q", current)
	}
}

func TestFilePath(t *testing.T) {
	if got := FilePath("/repo/.git/worktrees/wt", "/repo/.git", true); got != filepath.Join("/repo/.git", "machete") {
		t.Errorf("FilePath top-level = %q", got)
	}
	if got := FilePath("/repo/.git/worktrees/wt", "/repo/.git", false); got != filepath.Join("/repo/.git/worktrees/wt", "machete") {
		t.Errorf("FilePath per-worktree = %q", got)
	}
}
