package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/taskflow-dev/taskflow/router"
	"github.com/taskflow-dev/taskflow/service/events"
	"github.com/taskflow-dev/taskflow/service/presence"
)

// Config 設定
type Config struct {
	// DevMode 開発モードかどうか (default: false)
	DevMode bool `mapstructure:"dev" yaml:"dev"`
	// Pprof pprofを有効にするかどうか (default: false)
	Pprof bool `mapstructure:"pprof" yaml:"pprof"`

	// Origin サーバーオリジン (default: http://localhost:3000)
	Origin string `mapstructure:"origin" yaml:"origin"`
	// Port サーバーポート番号 (default: 3000)
	Port int `mapstructure:"port" yaml:"port"`
	// Gzip レスポンスのGZIP圧縮を有効にするかどうか (default: true)
	Gzip bool `mapstructure:"gzip" yaml:"gzip"`
	// ShutdownTimeout シャットダウン時のタイムアウト(秒) (default: 10)
	ShutdownTimeout int `mapstructure:"shutdownTimeout" yaml:"shutdownTimeout"`

	// AccessLog HTTPアクセスログ設定
	AccessLog struct {
		// Enabled 有効かどうか (default: true)
		Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	} `mapstructure:"accessLog" yaml:"accessLog"`

	// MariaDB データベース接続設定
	MariaDB struct {
		// Host ホスト名 (default: 127.0.0.1)
		Host string `mapstructure:"host" yaml:"host"`
		// Port ポート番号 (default: 3306)
		Port int `mapstructure:"port" yaml:"port"`
		// Username ユーザー名 (default: root)
		Username string `mapstructure:"username" yaml:"username"`
		// Password パスワード (default: password)
		Password string `mapstructure:"password" yaml:"password"`
		// Database データベース名 (default: taskflow)
		Database string `mapstructure:"database" yaml:"database"`
		// Connection コネクション設定
		Connection struct {
			// MaxOpen 最大オープン接続数 (default: 0)
			MaxOpen int `mapstructure:"maxOpen" yaml:"maxOpen"`
			// MaxIdle 最大アイドル接続数 (default: 2)
			MaxIdle int `mapstructure:"maxIdle" yaml:"maxIdle"`
			// LifeTime 接続の最大生存時間(秒) (default: 0)
			LifeTime int `mapstructure:"lifetime" yaml:"lifetime"`
		} `mapstructure:"connection" yaml:"connection"`
	} `mapstructure:"mariadb" yaml:"mariadb"`

	// JWT 認証トークン設定
	JWT struct {
		// Secret HS256署名シークレット
		Secret string `mapstructure:"secret" yaml:"secret"`
	} `mapstructure:"jwt" yaml:"jwt"`

	// Realtime リアルタイム層設定
	Realtime struct {
		// Presence 在席管理設定
		Presence struct {
			// IdleTimeout 無操作でアイドルになるまでの時間(秒) (default: 300)
			IdleTimeout int `mapstructure:"idleTimeout" yaml:"idleTimeout"`
			// TypingTimeout 入力中表示が解除されるまでの時間(秒) (default: 3)
			TypingTimeout int `mapstructure:"typingTimeout" yaml:"typingTimeout"`
			// OfflineRetention オフラインの在席情報の保持時間(秒) (default: 600)
			OfflineRetention int `mapstructure:"offlineRetention" yaml:"offlineRetention"`
		} `mapstructure:"presence" yaml:"presence"`
		// Events イベント履歴設定
		Events struct {
			// Capacity プロジェクトごとの履歴の最大保持件数 (default: 100)
			Capacity int `mapstructure:"capacity" yaml:"capacity"`
			// RetentionHours イベントの最大保持時間(時間) (default: 168)
			RetentionHours int `mapstructure:"retentionHours" yaml:"retentionHours"`
		} `mapstructure:"events" yaml:"events"`
	} `mapstructure:"realtime" yaml:"realtime"`
}

func init() {
	viper.SetDefault("dev", false)
	viper.SetDefault("pprof", false)
	viper.SetDefault("origin", "http://localhost:3000")
	viper.SetDefault("port", 3000)
	viper.SetDefault("gzip", true)
	viper.SetDefault("shutdownTimeout", 10)
	viper.SetDefault("accessLog.enabled", true)
	viper.SetDefault("mariadb.host", "127.0.0.1")
	viper.SetDefault("mariadb.port", 3306)
	viper.SetDefault("mariadb.username", "root")
	viper.SetDefault("mariadb.password", "password")
	viper.SetDefault("mariadb.database", "taskflow")
	viper.SetDefault("mariadb.connection.maxOpen", 0)
	viper.SetDefault("mariadb.connection.maxIdle", 2)
	viper.SetDefault("mariadb.connection.lifetime", 0)
	viper.SetDefault("jwt.secret", "")
	viper.SetDefault("realtime.presence.idleTimeout", 300)
	viper.SetDefault("realtime.presence.typingTimeout", 3)
	viper.SetDefault("realtime.presence.offlineRetention", 600)
	viper.SetDefault("realtime.events.capacity", 100)
	viper.SetDefault("realtime.events.retentionHours", 168)
}

func (c Config) getDatabase(l logger.Interface) (*gorm.DB, error) {
	engine, err := gorm.Open(mysql.New(mysql.Config{
		DSN: fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true",
			c.MariaDB.Username,
			c.MariaDB.Password,
			c.MariaDB.Host,
			c.MariaDB.Port,
			c.MariaDB.Database,
		),
	}), &gorm.Config{
		Logger:         l,
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	db, err := engine.DB()
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(c.MariaDB.Connection.MaxOpen)
	db.SetMaxIdleConns(c.MariaDB.Connection.MaxIdle)
	db.SetConnMaxLifetime(time.Duration(c.MariaDB.Connection.LifeTime) * time.Second)
	return engine, nil
}

func (c Config) presenceConfig() presence.Config {
	return presence.Config{
		IdleTimeout:      time.Duration(c.Realtime.Presence.IdleTimeout) * time.Second,
		TypingTimeout:    time.Duration(c.Realtime.Presence.TypingTimeout) * time.Second,
		OfflineRetention: time.Duration(c.Realtime.Presence.OfflineRetention) * time.Second,
	}
}

func (c Config) eventsConfig() events.Config {
	return events.Config{
		Capacity:  c.Realtime.Events.Capacity,
		Retention: time.Duration(c.Realtime.Events.RetentionHours) * time.Hour,
	}
}

func (c Config) routerConfig() *router.Config {
	return &router.Config{
		Development:   c.DevMode,
		Version:       Version,
		Revision:      Revision,
		AccessLogging: c.AccessLog.Enabled,
		Gzipped:       c.Gzip,
		Origins:       []string{c.Origin},
	}
}
