/*
 * interfaces.go, part of dihscan.
 *
 * Copyright 2012 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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
	"strings"

	v3 "github.com/rmera/dihscan/v3"
)

// Atomer is the basic interface for a topology.
type Atomer interface {

	//Atom returns the Atom corresponding to the index i
	//of the Atom slice in the Topology. Should panic if
	//out of range.
	Atom(i int) *Atom

	Len() int
}

// Traj is an interface for any trajectory object that can be read frame by frame.
type Traj interface {

	//Is the trajectory ready to be read?
	Readable() bool

	//Next reads the next frame into output. If output is nil the frame is discarded.
	Next(output *v3.Matrix, box ...[]float64) error

	//Returns the number of atoms per frame
	Len() int
}

// TrajWriter is an interface for trajectories that can be written frame by frame.
type TrajWriter interface {
	WNext(coords *v3.Matrix, box ...[]float64) error
	Len() int
}

//Errors

// Error is the interface for errors that all packages in this library implement. The Decorate method allows to add and retrieve info from the
// error, without changing it's type or wrapping it around something else.
type Error interface {
	Error() string
	Decorate(string) []string //each call adds the name of a function in the calling stack, and returns the current "decoration" slice. Given an empty string, it returns the current slice without changes.
}

// TrajError is the interface for errors in trajectories
type TrajError interface {
	Error
	Critical() bool
	FileName() string
	Format() string
}

// LastFrameError has a useless function to distinguish the harmless errors (i.e. last frame) so  they can be
// filtered in a typeswitch that looks for this interface.
type LastFrameError interface {
	TrajError
	NormalLastFrameTermination() //does nothing, just to separate this interface from other TrajError's
}

// CError is the error type for the chem package.
type CError struct {
	msg      string
	deco     []string
	critical bool
}

// NewError returns a new critical *CError with the message msg, decorated with caller.
func NewError(msg, caller string) *CError {
	return &CError{msg: msg, deco: []string{caller}, critical: true}
}

// Error returns a string with an error message.
func (err *CError) Error() string {
	if len(err.deco) == 0 {
		return err.msg
	}
	return err.msg + " (" + strings.Join(err.deco, " < ") + ")"
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err *CError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical return whether the error is critical or it can be ignored
func (err *CError) Critical() bool { return err.critical }

// errDecorate decorates err with the caller's name if it implements Error,
// and returns it unchanged otherwise.
func errDecorate(err error, caller string) error {
	if err2, ok := err.(Error); ok {
		err2.Decorate(caller)
		return err2
	}
	return err
}

const (
	ErrMalformedBond = "Bond to a non-existent atom"
	ErrZeroAxis      = "Rotation axis has zero length"
	ErrOutOfRange    = "Atom index out of range"
	ErrEmptyMask     = "Mask selects no atoms"
	ErrBadMask       = "Malformed atom mask"
)
