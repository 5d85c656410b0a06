// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"strings"

	"github.com/gizzahub/gzh-cli-machete/pkg/layout"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// Anno sets, clears or displays the annotation of a branch.
// With words == nil the current annotation is printed; a single empty
// word clears it.
func (s *State) Anno(branch refs.LocalBranch, words []string) error {
	if err := s.ExpectInManaged(branch); err != nil {
		return err
	}
	if words == nil {
		if a, ok := s.Layout.Annotation(branch); ok {
			s.Printf("%s\n", a.Unformatted())
		}
		return nil
	}
	text := strings.TrimSpace(strings.Join(words, " "))
	if text == "" {
		s.Layout.SetAnnotation(branch, layout.Annotation{Qualifiers: layout.DefaultQualifiers()})
	} else {
		s.Layout.SetAnnotation(branch, layout.ParseAnnotation(text))
	}
	return s.SaveLayout(false)
}
