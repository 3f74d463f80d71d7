package domain

// Candidate is a single password guess produced by the generator
type Candidate = string

// DefaultAlphabet is the lowercase latin alphabet used when none is configured
const DefaultAlphabet = "abcdefghijklmnopqrstuvwxyz"

// DefaultMaxLength is the longest candidate generated when no password range is given
const DefaultMaxLength = 8
