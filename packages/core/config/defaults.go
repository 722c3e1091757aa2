package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		ConnectTimeout:  5000,  // 5 seconds
		ReadTimeout:     30000, // 30 seconds
		FollowRedirects: BoolPtr(false),
		Headers:         nil,
		Output:          "console",
		Pretty:          BoolPtr(false),
		HistoryFile:     "",
		NoHistory:       BoolPtr(false),
		Verbose:         BoolPtr(false),
		NoColor:         BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.UserAgent == defaults.UserAgent &&
		c.ConnectTimeout == defaults.ConnectTimeout &&
		c.ReadTimeout == defaults.ReadTimeout &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		len(c.Headers) == 0 &&
		c.Output == defaults.Output &&
		c.GetPretty() == defaults.GetPretty() &&
		c.HistoryFile == defaults.HistoryFile &&
		c.GetNoHistory() == defaults.GetNoHistory() &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.GetNoColor() == defaults.GetNoColor()
}
