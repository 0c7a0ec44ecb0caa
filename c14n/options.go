// Copyright 2015-2017 Piprate Limited
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package c14n

// Options holds the settings for a canonicalization run.
type Options struct {

	// Algorithm selects the canonicalization algorithm. Only
	// AlgorithmURDNA2015 is supported.
	Algorithm string

	// InputFormat is the media type of the input when it is given as text
	// rather than as a parsed *RDFDataset. Only N-Quads is recognized.
	InputFormat string

	// Format is the media type of the output. When set to N-Quads,
	// Normalize returns the canonical N-Quads document as a string.
	// When empty, Normalize returns a parsed *RDFDataset.
	Format string

	// DatasetLoader is used by NormalizeDocument to retrieve remote datasets.
	DatasetLoader DatasetLoader
}

// NewOptions creates and returns a new instance of Options with defaults.
func NewOptions() *Options {
	return &Options{
		Algorithm:     AlgorithmURDNA2015,
		InputFormat:   "",
		Format:        "",
		DatasetLoader: NewDefaultDatasetLoader(nil),
	}
}

// Copy creates a copy of the Options object. The DatasetLoader is shared
// with the original, not copied.
func (opt *Options) Copy() *Options {
	return &Options{
		Algorithm:     opt.Algorithm,
		InputFormat:   opt.InputFormat,
		Format:        opt.Format,
		DatasetLoader: opt.DatasetLoader,
	}
}
