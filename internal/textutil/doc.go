// Package textutil provides the title normalization and string similarity
// primitives used by every resolution strategy.
//
// NormalizeTitle strips provider noise such as "(Dub)" markers, "(TV)" tags,
// and trailing "BD" tokens. Score computes a bigram Dice coefficient, and
// BestSimilarity picks the strongest match across a candidate title and its
// alternates.
package textutil
