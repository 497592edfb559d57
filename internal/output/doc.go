// Package output encodes responses so identical results produce identical
// bytes: object keys are sorted, floats are rounded to six decimals, and nil
// fields are dropped. Weights such as 1.4*1.5 print as 2.1 instead of
// 2.0999999999999996.
package output
