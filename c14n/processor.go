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

import (
	"fmt"
)

// rdfSerializers is the registry of supported RDF serialization formats.
var rdfSerializers = map[string]RDFSerializer{
	"application/n-quads": &NQuadRDFSerializer{},
	"application/nquads":  &NQuadRDFSerializer{},
}

// Canonicalizer canonicalizes RDF datasets. A single instance may be used
// for any number of sequential Normalize calls; concurrent calls on
// distinct instances are safe.
type Canonicalizer struct {
}

// NewCanonicalizer creates a new instance of Canonicalizer.
func NewCanonicalizer() *Canonicalizer {
	return &Canonicalizer{}
}

// Normalize performs RDF dataset canonicalization on the given input.
// The input is either a parsed *RDFDataset or text (string, []byte or
// io.Reader) in the format named by the 'InputFormat' option, N-Quads
// when that option is empty. The output
// is an *RDFDataset unless the 'Format' option is used, in which case it
// is the canonical N-Quads document as a string.
func (c *Canonicalizer) Normalize(input interface{}, opts *Options) (interface{}, error) {
	if opts == nil {
		opts = NewOptions()
	}

	if opts.Algorithm != AlgorithmURDNA2015 {
		return nil, NewC14nError(InvalidInput, fmt.Sprintf("unknown canonicalization algorithm: %s", opts.Algorithm))
	}

	var dataset *RDFDataset
	if ds, isDataset := input.(*RDFDataset); isDataset {
		dataset = ds
	} else {
		inputFormat := opts.InputFormat
		if inputFormat == "" {
			inputFormat = "application/n-quads"
		}
		serializer, hasSerializer := rdfSerializers[inputFormat]
		if !hasSerializer {
			return nil, NewC14nError(UnknownFormat, inputFormat)
		}
		var err error
		if dataset, err = serializer.Parse(input); err != nil {
			return nil, err
		}
	}

	na := NewNormalisationAlgorithm()
	return na.Main(dataset, opts)
}

// NormalizeDocument retrieves the N-Quads document at the given URL using
// the DatasetLoader from the options, and canonicalizes it.
func (c *Canonicalizer) NormalizeDocument(u string, opts *Options) (interface{}, error) {
	if opts == nil {
		opts = NewOptions()
	}

	loader := opts.DatasetLoader
	if loader == nil {
		loader = NewDefaultDatasetLoader(nil)
	}

	remoteDoc, err := loader.LoadDataset(u)
	if err != nil {
		return nil, err
	}

	return c.Normalize(remoteDoc.Dataset, opts)
}
