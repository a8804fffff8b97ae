package ioc

import (
	"log"

	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_aggregator/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func InitDB() *gorm.DB {
	var cfg config.MySQLConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal mysql config failed: %v", err)
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN))
	if err != nil {
		log.Panicf("connect mysql failed: %v", err)
	}
	return db
}
