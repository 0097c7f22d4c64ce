// Package policy implements policies using linear function
// approximation. Policies act on batches of feature vectors, one
// feature vector per row.
package policy

import "gonum.org/v1/gonum/mat"

// Policy selects actions given a batch of feature vectors
type Policy interface {
	// SelectActions returns one action per row of features together
	// with the parameters of the action distribution of each row
	SelectActions(features *mat.Dense) (actions, distInfo *mat.Dense)

	// Weights returns the weights of the policy keyed by name
	Weights() map[string]*mat.Dense
}
