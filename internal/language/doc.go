// Package language normalizes the free-form subtitle language labels
// providers return ("English", "Portuguese (Brazil)", "eng", "en-US") into
// BCP 47 tags so cached source bundles compare and render consistently.
package language
