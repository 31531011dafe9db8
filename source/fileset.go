// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package source

import "sort"

// FileSet represents a set of source files.
type FileSet struct {
	Base     int     // base offset for the next file
	Files    []*File // list of files in the order added to the set
	LastFile *File   // cache of last file looked up
}

// NewFileSet creates a new file set.
func NewFileSet() *FileSet {
	return &FileSet{
		Base: 1, // 0 == NoPos
	}
}

// AddFile adds a new file in the file set.
func (s *FileSet) AddFile(filename string, base, size int) *File {
	if base < 0 {
		base = s.Base
	}
	if base < s.Base || size < 0 {
		panic("illegal base or size")
	}

	f := &File{
		set:   s,
		Name:  filename,
		Base:  base,
		Size:  size,
		Lines: []int{0},
	}
	base += size + 1 // +1 because EOF also has a position
	if base < 0 {
		panic("offset overflow (> 2G of source code in file set)")
	}

	s.Base = base
	s.Files = append(s.Files, f)
	s.LastFile = f
	return f
}

// File returns the file that contains the position p. If no such file is
// found (for instance for p == NoPos), the result is nil.
func (s *FileSet) File(p Pos) (f *File) {
	if s == nil || p == NoPos {
		return nil
	}
	if f = s.LastFile; f != nil && f.Base <= int(p) && int(p) <= f.Base+f.Size {
		return
	}
	i := sort.Search(len(s.Files), func(i int) bool { return s.Files[i].Base > int(p) }) - 1
	if i >= 0 {
		if f = s.Files[i]; int(p) <= f.Base+f.Size {
			s.LastFile = f
			return
		}
	}
	return nil
}

// Position converts a Pos in the fileset into a FilePos value.
func (s *FileSet) Position(p Pos) (pos FilePos) {
	if f := s.File(p); f != nil {
		return f.Position(p)
	}
	return
}
