/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func names(ins []*Instr) []string {
	rs := make([]string, len(ins))
	for i, p := range ins {
		rs[i] = p.String()
	}
	return rs
}

func newTestStream(verbose int) *Stream {
	ids := new(Allocator)
	return NewStream([]*Instr{
		ids.Move("$2", "$3"),
		ids.Move("$4", "$5"),
		ids.Move("$6", "$7"),
	}, ids, verbose)
}

func TestStream_ReadPeek(t *testing.T) {
	s := newTestStream(0)
	require.Equal(t, "move $2,$3", s.Read().String())
	require.Equal(t, []string{"move $4,$5", "move $6,$7"}, names(s.Peek(2)))
	require.Equal(t, []string{"move $4,$5", "move $6,$7"}, names(s.Peek(5)))
	s.Read()
	s.Read()
	require.True(t, s.End())
	require.Empty(t, s.Peek(1))
	require.Panics(t, func() { s.Read() })
}

func TestStream_Replace(t *testing.T) {
	s := newTestStream(1)
	s.Read()
	s.Read()
	li := s.Ids.LoadImm("$4", 1)
	s.Replace(2, []*Instr{li}, "fused")
	require.Equal(t, []string{"move $2,$3", "li $4,1"}, names(s.Ins))
	require.Equal(t, []string{"fused"}, li.Notes)
	require.True(t, s.End())
}

func TestStream_ReplaceMisuse(t *testing.T) {
	s := newTestStream(0)
	require.Panics(t, func() { s.Replace(1, nil, "") })
	s.Read()
	s.Replace(1, nil, "")
	require.Panics(t, func() { s.Replace(1, nil, "") })
	require.Panics(t, func() { s.ReplaceAt(1, 5, nil, "") })
	require.Panics(t, func() { s.ReplaceAt(-1, 0, nil, "") })
}

func TestStream_RemoveCarriesNote(t *testing.T) {
	s := newTestStream(2)
	s.Read()
	s.Remove("gone")
	require.Equal(t, []string{"move $4,$5", "move $6,$7"}, names(s.Ins))
	require.Equal(t, []string{"gone"}, s.Ins[0].Notes)
	require.Equal(t, 0, s.Pos())

	q := newTestStream(0)
	q.Read()
	q.Remove("gone")
	require.Empty(t, q.Ins[0].Notes)
}

func TestStream_InsertFilter(t *testing.T) {
	s := newTestStream(0)
	s.Insert(1, s.Ids.Label("L1"), "")
	require.Equal(t, []string{"move $2,$3", "L1:", "move $4,$5", "move $6,$7"}, names(s.Ins))
	require.Equal(t, 2, s.Pos())
	n := s.Filter(func(p *Instr) bool { return !p.IsLabel() })
	require.Equal(t, 1, n)
	require.Equal(t, 3, s.Len())
	require.Equal(t, 0, s.Pos())
}

func TestStream_NotesSurviveRemoval(t *testing.T) {
	s := newTestStream(1)
	s.Ins[0].Note("first")
	s.Ins[1].Note("second")

	/* replacing both keeps every note on the replacement */
	s.Read()
	li := s.Ids.LoadImm("$4", 1)
	s.Replace(2, []*Instr{li}, "fused")
	require.Equal(t, []string{"first", "second", "fused"}, li.Notes)

	/* an instruction kept by the replacement gives nothing away */
	s.Reset()
	s.Read()
	s.Replace(2, []*Instr{li}, "merged")
	require.Equal(t, []string{"li $4,1"}, names(s.Ins))
	require.Equal(t, []string{"first", "second", "fused", "merged"}, li.Notes)

	/* removing the last instruction hands its notes backwards */
	q := newTestStream(1)
	q.Ins[2].Note("last")
	q.Read()
	q.Read()
	q.Read()
	q.Remove("gone")
	require.Equal(t, []string{"last", "gone"}, q.Ins[1].Notes)
}

func TestStream_FilterCarriesNotes(t *testing.T) {
	s := newTestStream(1)
	s.Ins[0].Note("a")
	s.Ins[2].Note("c")
	n := s.Filter(func(p *Instr) bool { return p.String() == "move $4,$5" })
	require.Equal(t, 2, n)
	require.Equal(t, []string{"a", "c"}, s.Ins[0].Notes)

	q := newTestStream(0)
	q.Ins[0].Note("a")
	q.Filter(func(p *Instr) bool { return p.String() != "move $2,$3" })
	require.Empty(t, q.Ins[0].Notes)
}
