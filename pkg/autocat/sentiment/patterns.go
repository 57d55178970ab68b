package sentiment

// Default relevance pattern sets. Two flavors: topic patterns name the
// mechanics that break (errors, links, logins, browsers), distress
// patterns catch the language people use when something went wrong for
// them. The default ruleset is the union; deployments substitute their
// own lists via configuration.

// DefaultTopicPatterns match surface mentions of known problem areas.
func DefaultTopicPatterns() []string {
	return []string{
		`/error(s|ed)?/`,
		`/fail(s|ed|ing|ure|ures)?/`,
		`/crash(es|ed|ing)?/`,
		"unauthorized",
		"unexpected error",
		"error has occurred",
		`/broken?/`,
		`/(hyper)?link(s|ed)?/`,
		`/password(s)?/`,
		"wrong page",
		`/drop[ -]?down/`,
		`/download(s|ed|ing)?/`,
		`/log(ged|ging)?[ -]?(in|out|on)/`,
		"security question",
		`/redirect(s|ed|ing)?/`,
		"not responding",
		`/tim(e|ed|ing)[ -]?out/`,
		"not found",
		`/pop[ -]?up(s)?/`,
		"out of date",
		`/brows(er|ers)/`,
		"internet explorer",
		"chrome",
		"firefox",
		"safari",
	}
}

// DefaultDistressPatterns match how people report trouble.
func DefaultDistressPatterns() []string {
	return []string{
		`/confus(e|ed|ing)/`,
		`/frustrat(e|ed|ing)/`,
		`/difficult(y|ies)?/`,
		`/problem(s|atic)?/`,
		`/issue(s)?/`,
		"wrong",
		"unclear",
		`/g(a|i)ven? up/`,
		`/unfortunate(ly)?/`,
		`/(wasn.?t |was not |un)able/`,
		`/(could|did|does|would|is)n.?t/`,
		`/(could|did|does|would|is) not/`,
		`/can.?t/`,
		"cannot",
		"incomplete",
		`/overwhelm(s|ed|ing)?/`,
	}
}

// DefaultPatterns is the combined default ruleset source.
func DefaultPatterns() []string {
	return append(DefaultTopicPatterns(), DefaultDistressPatterns()...)
}
