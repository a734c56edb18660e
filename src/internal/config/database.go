package config

import (
	"github.com/spf13/viper"

	"delivery-service/src/pkg/databases/mysql"
	"delivery-service/src/pkg/log"
)

func NewDatabase(v *viper.Viper, logger log.Log) mysql.DBInterface {
	db, err := mysql.InitConnection(v, logger)
	if err != nil {
		panic(err)
	}
	return db
}
