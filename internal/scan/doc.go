// Package scan resolves documentation viewer links for many repositories at
// once, either every repository below a local git root or every repository a
// configured forge lists for its owners.
package scan
