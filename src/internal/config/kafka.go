package config

import (
	"github.com/spf13/viper"

	kafkaPkgConfluent "delivery-service/src/pkg/kafka/confluent"
	"delivery-service/src/pkg/log"
)

func NewKafkaConfig(v *viper.Viper) {
	kafkaPkgConfluent.InitKafkaConfig(kafkaPkgConfluent.Cfg{
		KafkaUrl:      v.GetString("kafka.url"),
		KafkaUsername: v.GetString("kafka.username"),
		KafkaPassword: v.GetString("kafka.password"),
		KafkaCaCert:   v.GetString("kafka.ca_cert"),
		AppName:       v.GetString("app.name"),
	})
}

func NewKafkaProducer(v *viper.Viper, logger log.Log) kafkaPkgConfluent.Producer {
	producer, err := kafkaPkgConfluent.NewProducer(kafkaPkgConfluent.GetConfig().GetKafkaConfig(), logger)
	if err != nil {
		panic(err)
	}
	return producer
}
