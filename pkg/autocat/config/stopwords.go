package config

// DefaultStopwords is the built-in English function-word list. It is
// deliberately small: aggressive stopword removal hurts phrase matching
// more than it helps, and deployments can extend it via a stoplist file.
func DefaultStopwords() []string {
	return []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "than",
		"of", "to", "in", "on", "at", "by", "for", "with", "from",
		"as", "is", "am", "are", "was", "were", "be", "been", "being",
		"it", "its", "this", "that", "these", "those", "there",
		"i", "me", "my", "we", "us", "our", "you", "your",
		"he", "him", "his", "she", "her", "they", "them", "their",
		"do", "does", "did", "have", "has", "had", "will", "would",
		"can", "could", "should", "may", "might", "must",
		"not", "no", "so", "very", "just", "too", "also",
		"what", "which", "who", "when", "where", "how", "why",
	}
}
