package config

type BaseCronJobConfig struct {
	CronExpr string `yaml:"cronExpr" mapstructure:"cronExpr"`
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Timeout  int    `yaml:"timeout" mapstructure:"timeout"` // 单位: 毫秒
}

type RankingRebuilderConfig struct {
	BaseCronJobConfig `yaml:",inline" mapstructure:",squash"`
}

func (RankingRebuilderConfig) Key() string {
	return "rankingRebuilder"
}

type SubmissionSweeperConfig struct {
	BaseCronJobConfig `yaml:",inline" mapstructure:",squash"`

	OlderThan int `yaml:"olderThan" mapstructure:"olderThan"` // 单位: 分钟, 超过该时长未终判的提交视为卡死
}

func (SubmissionSweeperConfig) Key() string {
	return "submissionSweeper"
}
