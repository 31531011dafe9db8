// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package source

import (
	"fmt"
	"sort"
)

// FilePos represents a resolved position in a source file.
type FilePos struct {
	File   *File // file, if any
	Offset int   // offset, starting at 0
	Line   int   // line number, starting at 1
	Column int   // column number, starting at 1 (byte count)
}

// IsValid returns true if the position is valid.
func (p FilePos) IsValid() bool {
	return p.Line > 0
}

func (p FilePos) FileName() string {
	if p.File != nil {
		return p.File.Name
	}
	return ""
}

// String returns a string in one of several forms:
//
//	file:line:column    valid position with file name
//	file:line           valid position with file name but no column (column == 0)
//	line:column         valid position without file name
//	file                invalid position with file name
//	-                   invalid position without file name
func (p FilePos) String() string {
	s := p.FileName()

	if p.IsValid() {
		if s != "" {
			s += ":"
		}
		s += fmt.Sprintf("%d", p.Line)
		if p.Column != 0 {
			s += fmt.Sprintf(":%d", p.Column)
		}
	}
	if s == "" {
		s = "-"
	}
	return s
}

// File represents a source file registered in a FileSet.
type File struct {
	set *FileSet
	// File name as provided to AddFile
	Name string
	// Pos value range for this file is [base...base+size]
	Base int
	// File size as provided to AddFile
	Size int
	// Lines contains the offset of the first character for each line
	// (the first entry is always 0)
	Lines []int
}

// Set returns the owning FileSet.
func (f *File) Set() *FileSet {
	return f.set
}

// AddLine adds a new line start offset. Offsets must be added in
// increasing order; others are ignored.
func (f *File) AddLine(offset int) {
	if offset >= f.Size {
		return
	}
	if l := len(f.Lines); l == 0 || f.Lines[l-1] < offset {
		f.Lines = append(f.Lines, offset)
	}
}

// FileSetPos returns the position in the file set.
func (f *File) FileSetPos(offset int) Pos {
	if offset > f.Size {
		panic("illegal file offset")
	}
	return Pos(f.Base + offset)
}

// Position translates the file set position into the file position.
func (f *File) Position(p Pos) (pos FilePos) {
	if p == NoPos || int(p) < f.Base || int(p) > f.Base+f.Size {
		return
	}
	offset := int(p) - f.Base
	pos.Offset = offset
	pos.File = f
	if i := sort.Search(len(f.Lines), func(i int) bool { return f.Lines[i] > offset }) - 1; i >= 0 {
		pos.Line, pos.Column = i+1, offset-f.Lines[i]+1
	}
	return
}
