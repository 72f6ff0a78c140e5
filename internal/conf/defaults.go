// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "modwatch")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "modwatch.log")

	viper.SetDefault("subreddit", "")

	viper.SetDefault("reddit.clientid", "")
	viper.SetDefault("reddit.clientsecret", "")
	viper.SetDefault("reddit.refreshtoken", "")
	viper.SetDefault("reddit.useragent", "modwatch-go (report queue watcher)")

	viper.SetDefault("poll.interval", 30*time.Second)
	viper.SetDefault("poll.limit", 25)

	viper.SetDefault("webhook.url", "")
	viper.SetDefault("webhook.timeout", 30*time.Second)
	viper.SetDefault("webhook.skipnotify", false)
	viper.SetDefault("webhook.auth.type", "none")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "modwatch.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "modwatch")
	viper.SetDefault("output.mysql.password", "modwatch")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
	viper.SetDefault("output.mysql.database", "modwatch")

	viper.SetDefault("output.postgres.enabled", false)
	viper.SetDefault("output.postgres.dsn", "")

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.listen", "0.0.0.0:8090")
}
