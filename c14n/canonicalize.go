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
	"crypto/sha256"
	"sort"
	"strings"
)

const (
	// AlgorithmURDNA2015 is the only supported canonicalization algorithm.
	AlgorithmURDNA2015 = "URDNA2015"

	// CanonicalIdPrefix is the prefix of blank node identifiers issued by
	// the canonical issuer. Labels in canonical output are
	// "_:c14n0", "_:c14n1", etc, in issuance order.
	CanonicalIdPrefix = "_:c14n" //nolint:stylecheck
)

var positions = []string{"s", "o", "g"}

// blankNodeInfo tracks the quads that reference a blank node, along with
// its memoized first-degree hash (empty until computed).
type blankNodeInfo struct {
	quads []*Quad
	hash  string
}

// NormalisationAlgorithm holds the state of a single canonicalization run.
// An instance must not be reused and must not be shared between goroutines.
type NormalisationAlgorithm struct {
	blankNodeInfo    map[string]*blankNodeInfo
	hashToBlankNodes map[string][]string
	canonicalIssuer  *IdentifierIssuer
	quads            []*Quad
	lines            []string
}

// NewNormalisationAlgorithm creates a new instance of NormalisationAlgorithm.
func NewNormalisationAlgorithm() *NormalisationAlgorithm {
	return &NormalisationAlgorithm{
		blankNodeInfo:   make(map[string]*blankNodeInfo),
		canonicalIssuer: NewIdentifierIssuer(CanonicalIdPrefix),
		quads:           make([]*Quad, 0),
	}
}

// Quads returns the quads processed by this algorithm, in canonical order
// once Normalize has run.
func (na *NormalisationAlgorithm) Quads() []*Quad {
	return na.quads
}

// Lines returns the canonical N-Quads lines produced by Normalize,
// in ascending lexicographical order.
func (na *NormalisationAlgorithm) Lines() []string {
	return na.lines
}

// Main canonicalizes the dataset and formats the result as requested by
// the given options: canonical N-Quads text when the N-Quads format is
// set, a parsed *RDFDataset when no format is set, and an UnknownFormat
// error for anything else.
func (na *NormalisationAlgorithm) Main(dataset *RDFDataset, opts *Options) (interface{}, error) {
	if err := na.Normalize(dataset); err != nil {
		return nil, err
	}

	if opts.Format != "" {
		if opts.Format == "application/n-quads" || opts.Format == "application/nquads" {
			return strings.Join(na.lines, ""), nil
		}
		return nil, NewC14nError(UnknownFormat, opts.Format)
	}

	return ParseNQuads(strings.Join(na.lines, ""))
}

// Normalize assigns canonical identifiers to every blank node in the
// dataset, rewrites the quads accordingly and stores the resulting
// N-Quads lines in sorted order.
func (na *NormalisationAlgorithm) Normalize(dataset *RDFDataset) error {
	// 1) Flatten the dataset into a single list of quads, attaching the
	// graph name to each quad, and index every blank node by the quads
	// that reference it.
	for graphName, triples := range dataset.Graphs {
		if graphName == "@default" {
			graphName = ""
		}
		for _, quad := range triples {
			if graphName != "" {
				if strings.Index(graphName, "_:") == 0 {
					quad.Graph = NewBlankNode(graphName)
				} else {
					quad.Graph = NewIRI(graphName)
				}
			}

			if !quad.Valid() {
				return NewC14nError(InvalidInput, "quad is not well-formed")
			}

			na.quads = append(na.quads, quad)

			for _, attrNode := range []Node{quad.Subject, quad.Object, quad.Graph} {
				if attrNode != nil && IsBlankNode(attrNode) {
					id := attrNode.GetValue()
					info, hasID := na.blankNodeInfo[id]
					if !hasID {
						info = &blankNodeInfo{quads: make([]*Quad, 0)}
						na.blankNodeInfo[id] = info
					}
					info.quads = append(info.quads, quad)
				}
			}
		}
	}

	// 2) All blank node identifiers start out non-normalized.
	nonNormalized := make(map[string]bool, len(na.blankNodeInfo))
	for id := range na.blankNodeInfo {
		nonNormalized[id] = true
	}

	// 3) Issue canonical identifiers for blank nodes whose first-degree
	// hash is unique, repeating until no new unique hashes appear. Every
	// pass that issues an identifier shrinks nonNormalized, so the loop
	// terminates.
	simple := true
	for simple {
		simple = false

		na.hashToBlankNodes = make(map[string][]string)
		for id := range nonNormalized {
			hash := na.hashFirstDegreeQuads(id)
			na.hashToBlankNodes[hash] = append(na.hashToBlankNodes[hash], id)
		}

		// The key order is snapshotted before entries are removed below.
		for _, hash := range sortedStringKeys(na.hashToBlankNodes) {
			idList := na.hashToBlankNodes[hash]
			if len(idList) > 1 {
				continue
			}

			id := idList[0]
			na.canonicalIssuer.GetId(id)
			delete(nonNormalized, id)
			delete(na.hashToBlankNodes, hash)
			simple = true
		}
	}

	// 4) The remaining groups share first-degree hashes. Break each group
	// with the N-degree hash, processing groups in ascending hash order.
	for _, hash := range sortedStringKeys(na.hashToBlankNodes) {
		// 4.1) Hash each as-yet non-canonical member of the group with a
		// fresh temporary issuer.
		hashPaths := make(map[string][]*IdentifierIssuer)
		for _, id := range na.hashToBlankNodes[hash] {
			if na.canonicalIssuer.HasId(id) {
				continue
			}

			issuer := NewIdentifierIssuer("_:b")
			issuer.GetId(id)

			ndHash, newIssuer, err := na.hashNDegreeQuads(id, issuer)
			if err != nil {
				return err
			}
			hashPaths[ndHash] = append(hashPaths[ndHash], newIssuer)
		}

		// 4.2) In ascending N-degree hash order, issue canonical
		// identifiers for the temporary identifiers of each result, in
		// the order the winning issuer assigned them.
		for _, ndHash := range sortedStringKeys(hashPaths) {
			for _, resultIssuer := range hashPaths[ndHash] {
				for _, existing := range resultIssuer.ExistingOrder() {
					na.canonicalIssuer.GetId(existing)
				}
			}
		}
	}

	// 5) Every blank node now has a canonical identifier. Rewrite the
	// quads in place and serialize them. Identifiers that already carry
	// the canonical prefix are left untouched.
	na.lines = make([]string, len(na.quads))
	for i, quad := range na.quads {
		for _, attrNode := range []Node{quad.Subject, quad.Object, quad.Graph} {
			if attrNode != nil {
				attrValue := attrNode.GetValue()
				if IsBlankNode(attrNode) && strings.Index(attrValue, CanonicalIdPrefix) != 0 {
					bn := attrNode.(*BlankNode)
					bn.Attribute = na.canonicalIssuer.GetId(attrValue)
				}
			}
		}

		var name string
		if quad.Graph != nil {
			name = quad.Graph.GetValue()
		}
		na.lines[i] = toNQuad(quad, name)
	}

	// sort canonical output
	sort.Sort(na)

	return nil
}

// Sort interface, ordering quads by their serialized lines
func (na *NormalisationAlgorithm) Len() int           { return len(na.quads) }
func (na *NormalisationAlgorithm) Less(i, j int) bool { return na.lines[i] < na.lines[j] }
func (na *NormalisationAlgorithm) Swap(i, j int) {
	na.lines[i], na.lines[j] = na.lines[j], na.lines[i]
	na.quads[i], na.quads[j] = na.quads[j], na.quads[i]
}

// hashFirstDegreeQuads computes the first-degree hash of the given blank
// node: every quad referencing it is serialized with the node's own label
// replaced by "_:a" and any other blank node label by "_:z", the lines
// are sorted and the concatenation is hashed. The result is memoized.
func (na *NormalisationAlgorithm) hashFirstDegreeQuads(id string) string {
	info := na.blankNodeInfo[id]
	if info.hash != "" {
		return info.hash
	}

	nquads := make([]string, 0, len(info.quads))
	for _, quad := range info.quads {
		graphCopy := modifyFirstDegreeComponent(id, quad.Graph)
		var name string
		if graphCopy != nil {
			name = graphCopy.GetValue()
		}

		quadCopy := NewQuad(
			modifyFirstDegreeComponent(id, quad.Subject),
			quad.Predicate,
			modifyFirstDegreeComponent(id, quad.Object),
			name,
		)

		nquads = append(nquads, toNQuad(quadCopy, name))
	}

	sort.Strings(nquads)

	md := sha256.New()
	for _, nquad := range nquads {
		md.Write([]byte(nquad))
	}
	info.hash = encodeHex(md.Sum(nil))

	return info.hash
}

// modifyFirstDegreeComponent maps blank node components to the sentinel
// labels used by hashFirstDegreeQuads. Non-blank components pass through.
func modifyFirstDegreeComponent(id string, component Node) Node {
	if !IsBlankNode(component) {
		return component
	}
	if component.GetValue() == id {
		return NewBlankNode("_:a")
	}
	return NewBlankNode("_:z")
}

// hashRelatedBlankNode computes the hash that identifies the related
// blank node from the given quad's viewpoint, using the best available
// identifier for it: its canonical identifier, the identifier assigned
// by issuer, or its first-degree hash, in that order of preference.
func (na *NormalisationAlgorithm) hashRelatedBlankNode(related string, quad *Quad, issuer *IdentifierIssuer, position string) string {
	var id string
	switch {
	case na.canonicalIssuer.HasId(related):
		id = na.canonicalIssuer.GetId(related)
	case issuer.HasId(related):
		id = issuer.GetId(related)
	default:
		id = na.hashFirstDegreeQuads(related)
	}

	md := sha256.New()
	md.Write([]byte(position))
	if position != "g" {
		md.Write([]byte("<" + quad.Predicate.GetValue() + ">"))
	}
	md.Write([]byte(id))

	return encodeHex(md.Sum(nil))
}

// hashNDegreeQuads computes the N-degree hash of the given blank node,
// recursively exploring the blank nodes related to it. For each group of
// related nodes sharing a related-hash, every permutation of the group is
// scored and the lexicographically smallest path is chosen; the returned
// issuer carries the identifiers assigned along the winning paths.
func (na *NormalisationAlgorithm) hashNDegreeQuads(id string, issuer *IdentifierIssuer) (string, *IdentifierIssuer, error) {
	hashToRelated := na.createHashToRelated(id, issuer)

	md := sha256.New()

	for _, hash := range sortedStringKeys(hashToRelated) {
		blankNodes := hashToRelated[hash]

		md.Write([]byte(hash))

		chosenPath := ""
		var chosenIssuer *IdentifierIssuer

		permutator := NewPermutator(blankNodes)
		for permutator.HasNext() {
			permutation := permutator.Next()

			issuerCopy := issuer.Clone()
			path := ""
			recursionList := make([]string, 0)

			skipToNextPermutation := false
			for _, related := range permutation {
				if na.canonicalIssuer.HasId(related) {
					path += na.canonicalIssuer.GetId(related)
				} else {
					if !issuerCopy.HasId(related) {
						recursionList = append(recursionList, related)
					}
					path += issuerCopy.GetId(related)
				}

				// This path can no longer beat the chosen one.
				if len(chosenPath) != 0 && len(path) >= len(chosenPath) && path > chosenPath {
					skipToNextPermutation = true
					break
				}
			}

			if skipToNextPermutation {
				continue
			}

			for _, related := range recursionList {
				resultHash, resultIssuer, err := na.hashNDegreeQuads(related, issuerCopy)
				if err != nil {
					return "", nil, err
				}

				path += issuerCopy.GetId(related)
				path += "<" + resultHash + ">"
				issuerCopy = resultIssuer

				if len(chosenPath) != 0 && len(path) >= len(chosenPath) && path > chosenPath {
					skipToNextPermutation = true
					break
				}
			}

			if skipToNextPermutation {
				continue
			}

			if len(chosenPath) == 0 || path < chosenPath {
				chosenPath = path
				chosenIssuer = issuerCopy
			}
		}

		// The first permutation is always adopted, so a nil chosen issuer
		// here means the permutation loop itself is broken.
		if chosenIssuer == nil {
			return "", nil, NewC14nError(InternalError, "no chosen issuer after exploring permutations")
		}

		md.Write([]byte(chosenPath))
		issuer = chosenIssuer
	}

	return encodeHex(md.Sum(nil)), issuer, nil
}

// createHashToRelated groups the blank nodes related to the given one by
// their related-hash. A blank node is related when it shares a quad with
// the given one as subject, object or graph name.
func (na *NormalisationAlgorithm) createHashToRelated(id string, issuer *IdentifierIssuer) map[string][]string {
	hashToRelated := make(map[string][]string)

	for _, quad := range na.blankNodeInfo[id].quads {
		for i, attrNode := range []Node{quad.Subject, quad.Object, quad.Graph} {
			if attrNode == nil || !IsBlankNode(attrNode) || attrNode.GetValue() == id {
				continue
			}

			related := attrNode.GetValue()
			hash := na.hashRelatedBlankNode(related, quad, issuer, positions[i])
			hashToRelated[hash] = append(hashToRelated[hash], related)
		}
	}

	return hashToRelated
}

// sortedStringKeys returns the map's keys in ascending lexicographical order.
func sortedStringKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

const hexDigit = "0123456789abcdef"

func encodeHex(data []byte) string {
	buf := make([]byte, 0, len(data)*2)
	for _, b := range data {
		buf = append(buf, hexDigit[b>>4], hexDigit[b&0xf])
	}
	return string(buf)
}
