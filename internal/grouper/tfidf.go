package grouper

import "math"

// tfidfCharNgrams vectorises each document into a TF-IDF weighted sparse
// vector over character n-grams in [minN, maxN], the "char_wb" analyzer
// shape spec §4.6 calls for. Pure function, no external library: no
// TF-IDF/DBSCAN package exists anywhere in the corpus this engine was
// learned from, so the vector math is hand-rolled here as a small
// functional core, independently testable without any IO.
func tfidfCharNgrams(docs []string, minN, maxN int) []map[string]float64 {
	docGrams := make([]map[string]int, len(docs))
	df := map[string]int{}

	for i, d := range docs {
		grams := charNgrams(d, minN, maxN)
		counts := map[string]int{}
		for _, g := range grams {
			counts[g]++
		}
		docGrams[i] = counts
		for g := range counts {
			df[g]++
		}
	}

	n := float64(len(docs))
	idf := map[string]float64{}
	for g, count := range df {
		idf[g] = math.Log(n/float64(count)) + 1.0
	}

	vectors := make([]map[string]float64, len(docs))
	for i, counts := range docGrams {
		v := map[string]float64{}
		var normSq float64
		for g, tf := range counts {
			w := float64(tf) * idf[g]
			v[g] = w
			normSq += w * w
		}
		if normSq > 0 {
			norm := math.Sqrt(normSq)
			for g := range v {
				v[g] /= norm
			}
		}
		vectors[i] = v
	}
	return vectors
}

// charNgrams produces n-grams of every length in [minN, maxN] over the
// word-bounded ("char_wb") padded string: each whitespace-separated word is
// padded with a single leading/trailing space so n-grams don't bridge word
// boundaries, matching scikit-learn's char_wb analyzer.
func charNgrams(doc string, minN, maxN int) []string {
	var grams []string
	words := splitWords(doc)
	for _, w := range words {
		padded := " " + w + " "
		r := []rune(padded)
		for n := minN; n <= maxN; n++ {
			if n > len(r) {
				continue
			}
			for i := 0; i+n <= len(r); i++ {
				grams = append(grams, string(r[i:i+n]))
			}
		}
	}
	return grams
}

func splitWords(s string) []string {
	var words []string
	var cur []rune
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' {
			if len(cur) > 0 {
				words = append(words, string(cur))
				cur = cur[:0]
			}
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	return words
}

// cosineSimilarity computes the cosine similarity of two sparse vectors
// represented as gram->weight maps.
func cosineSimilarity(a, b map[string]float64) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	var dot float64
	for g, wa := range a {
		if wb, ok := b[g]; ok {
			dot += wa * wb
		}
	}
	return dot
}

// dbscan clusters n points from a precomputed distance matrix. Returns a
// label per point; noise would be labeled -1 but with minSamples=1 (spec
// §4.6's DBSCAN config) no point is ever noise — every point seeds its own
// cluster if it has no neighbours within eps.
func dbscan(dist [][]float64, eps float64, minSamples int) []int {
	n := len(dist)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	visited := make([]bool, n)
	nextLabel := 0

	neighbors := func(i int) []int {
		var ns []int
		for j := 0; j < n; j++ {
			if j != i && dist[i][j] <= eps {
				ns = append(ns, j)
			}
		}
		return ns
	}

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true
		ns := neighbors(i)
		if len(ns)+1 < minSamples {
			labels[i] = nextLabel
			nextLabel++
			continue
		}

		label := nextLabel
		nextLabel++
		labels[i] = label

		queue := append([]int{}, ns...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]
			if !visited[j] {
				visited[j] = true
				jns := neighbors(j)
				if len(jns)+1 >= minSamples {
					queue = append(queue, jns...)
				}
			}
			if labels[j] == -1 {
				labels[j] = label
			}
		}
	}

	for i := range labels {
		if labels[i] == -1 {
			labels[i] = nextLabel
			nextLabel++
		}
	}

	return labels
}
