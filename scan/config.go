/*
 * scan/config.go, part of dihscan.
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

package scan

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	chem "github.com/rmera/dihscan"
	"gopkg.in/yaml.v3"
)

const (
	ModeInterval = "interval"
	ModeRandom   = "random"
)

// Config holds the scan options. Distances are in A and angles in degrees.
// Cutoffs are given unsquared, the scanner squares them once.
type Config struct {
	Mode      string  `yaml:"mode" validate:"oneof=interval random"`
	Interval  float64 `yaml:"interval" validate:"gt=0,lte=360"`
	Check     bool    `yaml:"check"`
	Cutoff    float64 `yaml:"cutoff" validate:"gt=0.001"`
	ResCutoff float64 `yaml:"rescutoff" validate:"gt=0.001"`
	Backtrack int     `yaml:"backtrack" validate:"gte=0"`
	Increment int     `yaml:"increment" validate:"gt=0,divides360"`
	MaxFactor int     `yaml:"maxfactor" validate:"gte=1"`
	//Seed for the random mode. If nil, the clock is used.
	Seed          *uint64 `yaml:"seed"`
	ProblemCutoff float64 `yaml:"problemcutoff" validate:"gt=0"`
}

// DefaultConfig returns a configuration for random mode without clash checks.
func DefaultConfig() Config {
	return Config{
		Mode:          ModeRandom,
		Interval:      60,
		Cutoff:        0.8,
		ResCutoff:     10,
		Backtrack:     4,
		Increment:     1,
		MaxFactor:     2,
		ProblemCutoff: 0.8,
	}
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("divides360", func(fl validator.FieldLevel) bool {
		n := fl.Field().Int()
		return n > 0 && 360%n == 0
	})
}

// Validate returns an error describing every invalid field of C.
func (C Config) Validate() error {
	err := validate.Struct(C)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return chem.NewError(err.Error(), "scan.Config.Validate")
	}
	msgs := make([]string, 0, len(verrs))
	for _, v := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s=%v fails %s", strings.ToLower(v.Field()), v.Value(), v.Tag()))
	}
	return chem.NewError("Invalid configuration: "+strings.Join(msgs, "; "), "scan.Config.Validate")
}

// LoadConfig reads a YAML configuration from r. Fields not present in r keep
// their default values. The result is validated.
func LoadConfig(r io.Reader) (Config, error) {
	C := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&C); err != nil && err != io.EOF {
		return C, chem.NewError(err.Error(), "scan.LoadConfig")
	}
	if err := C.Validate(); err != nil {
		return C, err
	}
	return C, nil
}
