// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oauth1

// Returns the absolute value of n.
//
// Branchless, constant time.
func abs64(n int64) uint64 {
	m := n >> (64 - 1)
	return uint64((n ^ m) - m)
}
