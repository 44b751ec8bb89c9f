package server

import (
	"path/filepath"
	"testing"

	"github.com/go-playground/validator"
	"github.com/sgabriel/rolodex/shared"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfigValidator(t *testing.T) *validator.Validate {
	t.Helper()

	validate := validator.New()
	require.Nil(t, RegisterValidators(validate))

	return validate
}

// Runs the same unmarshal + validation sequence as Start over the shipped dev
// config, so a config struct change that breaks boot fails here first.
func TestDevServerConfigIsValid(t *testing.T) {
	config := viper.New()
	config.SetConfigFile(filepath.Join("..", "dev", "config", "server.yml"))
	require.Nil(t, config.ReadInConfig())

	serverConfig := &shared.ServerConfig{}
	require.Nil(t, config.Unmarshal(serverConfig))

	require.Nil(t, newConfigValidator(t).Struct(serverConfig))

	assert.False(t, sqliteBackupEnabled(serverConfig))
	assert.Equal(t, "passphrase", serverConfig.Sqlite.PassPhrase)
	assert.Equal(t, 3000, serverConfig.Rolodex.Listener.Port)
}

func TestServerConfigRequiresSqliteAndListener(t *testing.T) {
	err := newConfigValidator(t).Struct(&shared.ServerConfig{})
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "PassPhrase")
	assert.Contains(t, err.Error(), "Port")
}

func TestBackupFlagRequiresBucketDetails(t *testing.T) {
	serverConfig := &shared.ServerConfig{
		Sqlite:  shared.SqliteConfig{PassPhrase: "secret"},
		Rolodex: shared.RolodexConfig{Listener: shared.ListenerConfig{Port: 3000}},
		Google: shared.GoogleConfig{
			Storage: shared.StorageConfig{EnableSqliteBackupAndSync: true},
		},
	}

	err := newConfigValidator(t).Struct(serverConfig)
	require.NotNil(t, err, "enabling the backup without bucket details must not validate")
	assert.Contains(t, err.Error(), "Bucket")
	assert.Contains(t, err.Error(), "SqliteBackupSchedule")

	serverConfig.Google.Storage.Bucket = "rolodex"
	serverConfig.Google.Storage.Prefix = "prod"
	serverConfig.Google.Storage.SqliteBackupSchedule = "0 * * * *"
	require.Nil(t, newConfigValidator(t).Struct(serverConfig))
	assert.True(t, sqliteBackupEnabled(serverConfig))
}
