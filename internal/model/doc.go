// Package model defines shared data types used across the ticker feed.
//
// Conventions:
//   - Prices: float64 in the instrument's quote currency
//   - PercentChange: percent, not a fraction (1.25 means +1.25%)
//   - Timestamps: time.Time; the zero value means "never"
//   - Error strings: "" means no error
package model
