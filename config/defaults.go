package config

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/llmkeyring",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Locale: "system",
		Security: SecurityConfig{
			Method: string(SecurityPlainText),
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# llmkeyring system settings
# Location: ~/.config/llmkeyring/settings.toml
# This file uses TOML format: https://toml.io

# Directory holding config.toml, the provider database and stored API keys
data_directory = "~/.local/share/llmkeyring"
`
}

func GenerateUserConfigTemplate() string {
	return `# llmkeyring user configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

# Message language: "system", "en" or "zh-Hans"
locale = "system"

[security]
# How API keys are stored on disk:
#   "plaintext" - credentials.toml, readable only by you (0600)
#   "ssh_key"   - credentials.enc, AES-256-GCM with a key derived from an SSH key
method = "plaintext"

# Private key used when method = "ssh_key"
# ssh_key_path = "~/.ssh/id_ed25519"

[http]
# Override every vendor's request timeout (Go duration, e.g. "10s")
# timeout = "10s"

# Maximum number of providers checked at once by "llmkeyring test" (0 = no limit)
# concurrency = 4
`
}
