package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/lorrc/helpdesk-bridge/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("MOVIDESK_API_TOKEN", "movidesk-secret-token")
	t.Setenv("NOTION_API_TOKEN", "secret_notion_token")
	t.Setenv("NOTION_DATABASE_ID", "db-tickets")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.movidesk.com/public/v1", cfg.Movidesk.BaseURL)
	assert.Equal(t, 85, cfg.Movidesk.PageSize)
	assert.Equal(t, "2022-06-28", cfg.Notion.Version)
	assert.Equal(t, "Titulo", cfg.Notion.TitleProperty)
	assert.Equal(t, "Utilizado por", cfg.Notion.EquipmentHolderProperty)
	assert.Empty(t, cfg.Notion.CreatedProperty)
	assert.Equal(t, 30*time.Second, cfg.Sync.OutboundTimeout)
	assert.Equal(t, map[string]string{"novo": "Novo", "em atendimento": "Em atendimento"}, cfg.Sync.ValidStatuses)
	assert.Contains(t, cfg.Sync.Keywords, "notebook")
	assert.Equal(t, TagStoreFile, cfg.TagStore.Driver)
	assert.Equal(t, "chamados_notificados.json", cfg.TagStore.Path)
	assert.True(t, cfg.TicketSyncEnabled())
	assert.False(t, cfg.EquipmentSyncEnabled())
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "MOVIDESK_API_TOKEN=from-file\nNOTION_API_TOKEN=from-file\nNOTION_EQUIPMENT_DATABASE_ID=db-eq\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// godotenv never overrides variables that are already set.
	t.Setenv("NOTION_API_TOKEN", "from-env")
	t.Cleanup(func() {
		os.Unsetenv("MOVIDESK_API_TOKEN")
		os.Unsetenv("NOTION_EQUIPMENT_DATABASE_ID")
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Movidesk.Token)
	assert.Equal(t, "from-env", cfg.Notion.Token)
	assert.True(t, cfg.EquipmentSyncEnabled())
	assert.False(t, cfg.TicketSyncEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SYNC_KEYWORDS", " impressora , , projetor")
	t.Setenv("SYNC_VALID_STATUSES", "Novo=Novo, aguardando ,em atendimento=Em andamento")
	t.Setenv("OUTBOUND_TIMEOUT", "10s")
	t.Setenv("TAG_STORE_DRIVER", "SQLite")

	cfg, err := Load(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)

	assert.Equal(t, []string{"impressora", "projetor"}, cfg.Sync.Keywords)
	assert.Equal(t, map[string]string{
		"Novo":           "Novo",
		"aguardando":     "aguardando",
		"em atendimento": "Em andamento",
	}, cfg.Sync.ValidStatuses)
	assert.Equal(t, 10*time.Second, cfg.Sync.OutboundTimeout)
	assert.Equal(t, TagStoreSQLite, cfg.TagStore.Driver)

	rules := cfg.SyncRules()
	label, ok := rules.Statuses.Resolve("NOVO")
	assert.True(t, ok)
	assert.Equal(t, "Novo", label)
	assert.True(t, rules.Statuses.IsActive("Aguardando"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		fields []string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name: "missing tokens",
			mutate: func(c *Config) {
				c.Movidesk.Token = ""
				c.Notion.Token = ""
			},
			fields: []string{"MOVIDESK_API_TOKEN", "NOTION_API_TOKEN"},
		},
		{
			name: "no databases",
			mutate: func(c *Config) {
				c.Notion.TicketDatabaseID = ""
			},
			fields: []string{"NOTION_DATABASE_ID"},
		},
		{
			name: "bot without chat",
			mutate: func(c *Config) {
				c.Telegram.BotToken = "123:abc"
			},
			fields: []string{"TELEGRAM_CHAT_ID"},
		},
		{
			name: "postgres without dsn",
			mutate: func(c *Config) {
				c.TagStore.Driver = TagStorePostgres
			},
			fields: []string{"TAG_STORE_DSN"},
		},
		{
			name: "unknown driver",
			mutate: func(c *Config) {
				c.TagStore.Driver = "etcd"
			},
			fields: []string{"TAG_STORE_DRIVER"},
		},
		{
			name: "short secret in production",
			mutate: func(c *Config) {
				c.App.Environment = "production"
				c.Admin.JWTSecret = "short"
			},
			fields: []string{"ADMIN_JWT_SECRET"},
		},
		{
			name: "non-positive timeout",
			mutate: func(c *Config) {
				c.Sync.OutboundTimeout = 0
			},
			fields: []string{"OUTBOUND_TIMEOUT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			cfg := FromEnv()
			tt.mutate(cfg)

			err := cfg.Validate()
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidConfig)
			var verrs *apperrors.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			for _, f := range tt.fields {
				assert.Contains(t, verrs.Errors, f)
			}
			assert.Len(t, verrs.Errors, len(tt.fields))
		})
	}
}

func TestString_RedactsSecrets(t *testing.T) {
	setRequired(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123456:telegram-secret")
	t.Setenv("TAG_STORE_DSN", "postgres://bridge:hunter2@db:5432/bridge")
	t.Setenv("ADMIN_JWT_SECRET", "a-very-long-admin-secret-value-0123456789")

	s := FromEnv().String()

	assert.NotContains(t, s, "movidesk-secret-token")
	assert.NotContains(t, s, "secret_notion_token")
	assert.NotContains(t, s, "telegram-secret")
	assert.NotContains(t, s, "hunter2")
	assert.NotContains(t, s, "a-very-long-admin-secret")
	assert.Contains(t, s, "@db:5432/bridge")
}
