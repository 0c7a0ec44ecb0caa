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

package c14n_test

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	. "github.com/piprate/rdf-canonize/c14n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canonize(t *testing.T, doc string) string {
	t.Helper()

	opts := NewOptions()
	opts.Format = "application/n-quads"

	rval, err := NewCanonicalizer().Normalize(doc, opts)
	require.NoError(t, err)

	return rval.(string)
}

func TestNormalize_Empty(t *testing.T) {
	assert.Equal(t, "", canonize(t, ""))
}

func TestNormalize_NoBlankNodes(t *testing.T) {
	doc := `<http://example.com/b> <http://example.com/p> "2" .
<http://example.com/a> <http://example.com/p> "1" .
`

	expected := `<http://example.com/a> <http://example.com/p> "1" .
<http://example.com/b> <http://example.com/p> "2" .
`
	assert.Equal(t, expected, canonize(t, doc))
}

func TestNormalize_SingleBlankNode(t *testing.T) {
	doc := `_:x <http://example/p> "v" .
`

	assert.Equal(t, "_:c14n0 <http://example/p> \"v\" .\n", canonize(t, doc))
}

func TestNormalize_IsomorphicInputs(t *testing.T) {
	docA := `_:a <http://ex/p> _:b .
_:b <http://ex/q> "1" .
`
	docB := `_:foo <http://ex/p> _:bar .
_:bar <http://ex/q> "1" .
`

	outA := canonize(t, docA)
	outB := canonize(t, docB)

	assert.Equal(t, outA, outB)
	assert.Len(t, strings.Split(strings.TrimSuffix(outA, "\n"), "\n"), 2)
	assert.Contains(t, outA, "_:c14n0")
	assert.Contains(t, outA, "_:c14n1")
	assert.True(t, Isomorphic(docA, outA))
}

func TestNormalize_SymmetricPair(t *testing.T) {
	doc := `_:a <http://ex/link> _:b .
_:b <http://ex/link> _:a .
`
	swapped := `_:b <http://ex/link> _:a .
_:a <http://ex/link> _:b .
`

	out := canonize(t, doc)

	// the two nodes are indistinguishable at first degree, so the
	// N-degree pass must break the tie, deterministically
	assert.Equal(t, out, canonize(t, swapped))
	assert.Equal(t,
		"_:c14n0 <http://ex/link> _:c14n1 .\n_:c14n1 <http://ex/link> _:c14n0 .\n",
		out)
}

func TestNormalize_SymmetricCycle(t *testing.T) {
	doc := `_:a <http://ex/next> _:b .
_:b <http://ex/next> _:c .
_:c <http://ex/next> _:a .
`
	rotated := `_:c <http://ex/next> _:a .
_:a <http://ex/next> _:b .
_:b <http://ex/next> _:c .
`

	out := canonize(t, doc)

	assert.Equal(t, out, canonize(t, rotated))
	assert.True(t, Isomorphic(doc, out))

	for _, id := range blankNodeLabels(t, out) {
		assert.True(t, strings.HasPrefix(id, "_:c14n"))
	}
}

func TestNormalize_BlankNodeGraphName(t *testing.T) {
	doc := `_:s <http://ex/p> "x" _:g1 .
`

	out := canonize(t, doc)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 1)

	labels := blankNodeLabels(t, out)
	assert.Len(t, labels, 2)
	for _, id := range labels {
		assert.True(t, strings.HasPrefix(id, "_:c14n"))
	}
}

func TestNormalize_UnknownFormat(t *testing.T) {
	opts := NewOptions()
	opts.Format = "text/turtle"

	_, err := NewCanonicalizer().Normalize("_:x <http://example/p> \"v\" .\n", opts)
	require.Error(t, err)

	var c14nErr *C14nError
	require.ErrorAs(t, err, &c14nErr)
	assert.Equal(t, UnknownFormat, c14nErr.Code)
}

func TestNormalize_UnknownAlgorithm(t *testing.T) {
	opts := NewOptions()
	opts.Algorithm = "URGNA2012"

	_, err := NewCanonicalizer().Normalize("", opts)
	require.Error(t, err)

	var c14nErr *C14nError
	require.ErrorAs(t, err, &c14nErr)
	assert.Equal(t, InvalidInput, c14nErr.Code)
}

func TestNormalize_InvalidQuad(t *testing.T) {
	dataset := NewRDFDataset()
	dataset.Graphs["@default"] = []*Quad{
		{
			Subject:   NewLiteral("not a subject", "", ""),
			Predicate: NewIRI("http://example.com/p"),
			Object:    NewIRI("http://example.com/o"),
		},
	}

	opts := NewOptions()
	opts.Format = "application/n-quads"

	_, err := NewCanonicalizer().Normalize(dataset, opts)
	require.Error(t, err)

	var c14nErr *C14nError
	require.ErrorAs(t, err, &c14nErr)
	assert.Equal(t, InvalidInput, c14nErr.Code)
}

func TestNormalize_Deterministic(t *testing.T) {
	doc := `_:a <http://ex/p> _:b .
_:b <http://ex/p> _:c .
_:c <http://ex/q> "leaf" .
_:a <http://ex/q> "root" .
`

	assert.Equal(t, canonize(t, doc), canonize(t, doc))
}

func TestNormalize_InputOrderInvariance(t *testing.T) {
	lines := []string{
		`_:a <http://ex/p> _:b .`,
		`_:b <http://ex/p> _:c .`,
		`_:c <http://ex/q> "leaf" .`,
		`_:a <http://ex/q> "root" .`,
	}

	expected := canonize(t, strings.Join(lines, "\n")+"\n")

	Perm(lines, func(perm []string) bool {
		assert.Equal(t, expected, canonize(t, strings.Join(perm, "\n")+"\n"))
		return false
	})
}

func TestNormalize_RelabelingInvariance(t *testing.T) {
	template := `_:%[1]s <http://ex/p> _:%[2]s .
_:%[2]s <http://ex/p> _:%[3]s .
_:%[3]s <http://ex/p> _:%[1]s .
_:%[1]s <http://ex/q> "tagged" .
`

	expected := canonize(t, fmt.Sprintf(template, "a", "b", "c"))

	for _, labels := range [][]string{
		{"b", "c", "a"},
		{"x", "y", "z"},
		{"n3", "n1", "n2"},
	} {
		out := canonize(t, fmt.Sprintf(template, labels[0], labels[1], labels[2]))
		assert.Equal(t, expected, out)
	}
}

func TestNormalize_LabelDensityAndSortedness(t *testing.T) {
	doc := `_:e1 <http://ex/p> _:e2 .
_:e2 <http://ex/p> _:e3 .
_:e3 <http://ex/p> _:e4 .
_:e4 <http://ex/q> "end" .
_:e5 <http://ex/r> _:e1 .
`

	out := canonize(t, doc)

	// exactly _:c14n0 ... _:c14n4, no gaps
	labels := blankNodeLabels(t, out)
	sort.Strings(labels)
	assert.Equal(t, []string{"_:c14n0", "_:c14n1", "_:c14n2", "_:c14n3", "_:c14n4"}, labels)

	// emitted lines are in ascending lexicographical order
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.True(t, sort.StringsAreSorted(lines))
}

func TestNormalize_Idempotent(t *testing.T) {
	doc := `_:a <http://ex/link> _:b .
_:b <http://ex/link> _:a .
_:a <http://ex/name> "first" .
`

	out := canonize(t, doc)

	assert.Equal(t, out, canonize(t, out))
}

func TestNormalize_DatasetOutput(t *testing.T) {
	doc := `_:x <http://example/p> "v" .
`

	rval, err := NewCanonicalizer().Normalize(doc, nil)
	require.NoError(t, err)

	dataset, isDataset := rval.(*RDFDataset)
	require.True(t, isDataset)

	quads := dataset.GetQuads("@default")
	require.Len(t, quads, 1)
	assert.Equal(t, NewBlankNode("_:c14n0"), quads[0].Subject)
}

func TestNormalize_DoubleGrounded(t *testing.T) {
	// two blank nodes distinguishable at first degree only through the
	// different IRIs they point to
	doc := `_:a <http://ex/p> <http://ex/X> .
_:b <http://ex/p> <http://ex/Y> .
`

	out := canonize(t, doc)

	assert.Equal(t,
		"_:c14n0 <http://ex/p> <http://ex/Y> .\n_:c14n1 <http://ex/p> <http://ex/X> .\n",
		out)
}

// blankNodeLabels extracts the set of distinct blank node labels from an
// N-Quads document.
func blankNodeLabels(t *testing.T, doc string) []string {
	t.Helper()

	dataset, err := ParseNQuads(doc)
	require.NoError(t, err)

	labelSet := make(map[string]bool)
	for _, quads := range dataset.Graphs {
		for _, id := range getBlankNodes(quads) {
			labelSet[id] = true
		}
	}

	rval := make([]string, 0, len(labelSet))
	for id := range labelSet {
		rval = append(rval, id)
	}
	return rval
}
