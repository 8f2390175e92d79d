// Package benchmark compares generation models on a fixed battery of LPC
// questions.
//
// Every (model, query) pair runs sequentially: models in the outer loop,
// queries in the inner loop. Each pair builds a prompt, optionally validates
// the question against the corpus, times the generation call and scores the
// response for keyword accuracy and heuristic quality. A pair whose
// generation fails is logged and left out; the rest of the matrix continues.
//
// The summary names the most accurate, fastest and highest-quality models
// and recommends the argmax of 0.4*accuracy + 0.4*quality + 0.2*speed, where
// speed is 1/(1+average latency in seconds).
package benchmark
