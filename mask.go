/*
 * mask.go, part of dihscan.
 *
 * Copyright 2021 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package chem

import (
	"fmt"
	"strconv"
	"strings"
)

// Mask selects atoms of a topology. It is built by ParseMask from
// expressions such as "*", ":1-10,15", "@N,CA,C", ":ALA,GLY" or ":2-8@CA".
// Residue numbers are 1-based positions in file order, not the
// residue numbers written in the file.
type Mask struct {
	expr     string
	all      bool
	ranges   [][2]int //1-based, inclusive
	resnames map[string]bool
	names    map[string]bool
}

// String returns the expression the mask was parsed from.
func (M *Mask) String() string {
	return M.expr
}

// ParseMask parses the mask expression expr. An empty residue or atom
// list, or a malformed range, is an error.
func ParseMask(expr string) (*Mask, error) {
	M := &Mask{expr: expr}
	e := strings.TrimSpace(expr)
	if e == "" || e == "*" {
		M.all = true
		return M, nil
	}
	var respart, atpart string
	switch {
	case strings.HasPrefix(e, ":"):
		respart = e[1:]
		if at := strings.Index(respart, "@"); at >= 0 {
			atpart = respart[at+1:]
			respart = respart[:at]
			if atpart == "" {
				return nil, maskErr(expr, "empty atom list")
			}
		}
		if respart == "" {
			return nil, maskErr(expr, "empty residue list")
		}
	case strings.HasPrefix(e, "@"):
		atpart = e[1:]
		if atpart == "" {
			return nil, maskErr(expr, "empty atom list")
		}
	default:
		return nil, maskErr(expr, "expected '*', ':' or '@'")
	}
	if respart != "" && respart != "*" {
		if err := M.parseResidues(respart); err != nil {
			return nil, errDecorate(err, "ParseMask")
		}
	}
	if atpart != "" && atpart != "*" {
		M.names = make(map[string]bool)
		for _, n := range strings.Split(atpart, ",") {
			n = strings.TrimSpace(n)
			if n == "" {
				return nil, maskErr(expr, "empty atom name")
			}
			M.names[n] = true
		}
	}
	return M, nil
}

func (M *Mask) parseResidues(respart string) error {
	for _, item := range strings.Split(respart, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			return maskErr(M.expr, "empty residue item")
		}
		first, last, isrange := strings.Cut(item, "-")
		start, err := strconv.Atoi(first)
		if err != nil {
			if isrange {
				return maskErr(M.expr, "bad range "+item)
			}
			//not a number, a residue name.
			if M.resnames == nil {
				M.resnames = make(map[string]bool)
			}
			M.resnames[item] = true
			continue
		}
		end := start
		if isrange {
			end, err = strconv.Atoi(last)
			if err != nil {
				return maskErr(M.expr, "unterminated range "+item)
			}
		}
		if start < 1 || end < start {
			return maskErr(M.expr, "bad range "+item)
		}
		M.ranges = append(M.ranges, [2]int{start, end})
	}
	return nil
}

func maskErr(expr, msg string) error {
	return NewError(fmt.Sprintf("%s %q: %s", ErrBadMask, expr, msg), "ParseMask")
}

func (M *Mask) residueSelected(T *Topology, r int) bool {
	if M.ranges == nil && M.resnames == nil {
		return true
	}
	for _, v := range M.ranges {
		if r+1 >= v[0] && r+1 <= v[1] {
			return true
		}
	}
	return M.resnames[T.Residue(r).Name]
}

// Select returns, in ascending order, the indexes of the atoms of T selected by M.
// It returns an error if no atom is selected.
func (M *Mask) Select(T *Topology) ([]int, error) {
	ret := make([]int, 0, T.Len())
	for i, at := range T.Atoms {
		if M.all {
			ret = append(ret, i)
			continue
		}
		if !M.residueSelected(T, at.Residue()) {
			continue
		}
		if M.names != nil && !M.names[strings.TrimSpace(at.Name)] {
			continue
		}
		ret = append(ret, i)
	}
	if len(ret) == 0 {
		return nil, NewError(fmt.Sprintf("%s: %q", ErrEmptyMask, M.expr), "Select")
	}
	return ret, nil
}
