package serverconfig

type Config struct {
	MySQL      MySQLConfig      `yaml:"mysql" mapstructure:"mysql"`
	MongoDB    MongoDBConfig    `yaml:"mongodb" mapstructure:"mongodb"`
	HTTPServer HTTPServerConfig `yaml:"httpserver" mapstructure:"httpserver"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Game       GameConfig       `yaml:"game" mapstructure:"game"`
	JWTSecret  string           `yaml:"jwt_secret" mapstructure:"jwt_secret"`
}

type MySQLConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	DBName   string `yaml:"dbname" mapstructure:"dbname"`
	Charset  string `yaml:"charset" mapstructure:"charset"`
	MaxIdle  int    `yaml:"max_idle" mapstructure:"max_idle"`
	MaxConn  int    `yaml:"max_conn" mapstructure:"max_conn"`
}

type MongoDBConfig struct {
	URI             string `yaml:"uri" mapstructure:"uri"`
	Database        string `yaml:"database" mapstructure:"database"`
	ConnectTimeoutS int    `yaml:"connect_timeout_s" mapstructure:"connect_timeout_s"`
}

type HTTPServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

type LogConfig struct {
	FileDir    string `yaml:"file_dir" mapstructure:"file_dir"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"` // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Level      string `yaml:"level" mapstructure:"level"` // debug/info/warn/error...
	Dev        bool   `yaml:"dev" mapstructure:"dev"`
}

type GameConfig struct {
	WorldID            string `yaml:"world_id" mapstructure:"world_id"`
	MovementPollS      int    `yaml:"movement_poll_s" mapstructure:"movement_poll_s"`
	CityTickS          int    `yaml:"city_tick_s" mapstructure:"city_tick_s"`
	AutosaveS          int    `yaml:"autosave_s" mapstructure:"autosave_s"`
	CancelWindowS      int    `yaml:"cancel_window_s" mapstructure:"cancel_window_s"`
	FoundingDurationS  int    `yaml:"founding_duration_s" mapstructure:"founding_duration_s"`
	AllianceCacheTTLS  int    `yaml:"alliance_cache_ttl_s" mapstructure:"alliance_cache_ttl_s"`
	RankingCacheTTLS   int    `yaml:"ranking_cache_ttl_s" mapstructure:"ranking_cache_ttl_s"`
	MovementBatchLimit int    `yaml:"movement_batch_limit" mapstructure:"movement_batch_limit"`
}
