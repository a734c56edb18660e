package config

import (
	"delivery-service/src/internal/delivery/http"
	"delivery-service/src/internal/delivery/http/middleware"
	"delivery-service/src/internal/delivery/http/route"
	"delivery-service/src/internal/gateway/messaging"
	"delivery-service/src/internal/gateway/scheduler"
	"delivery-service/src/internal/repository"
	"delivery-service/src/internal/usecase"
	"delivery-service/src/pkg/databases/mysql"
	kafkaPkgConfluent "delivery-service/src/pkg/kafka/confluent"
	"delivery-service/src/pkg/log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

type BootstrapConfig struct {
	DB          mysql.DBInterface
	App         *fiber.App
	Log         log.Log
	Validate    *validator.Validate
	Config      *viper.Viper
	Producer    kafkaPkgConfluent.Producer
	Redis       redis.UniversalClient
	Geoservice  *GeoService
	AsynqClient *asynq.Client
	Async       *asynq.ServeMux
}

// Bootstrap wires repositories, producers, usecases, controllers, routes,
// and the asynq task handlers. It returns the sweeper so main can run it on
// its own goroutine.
func Bootstrap(config *BootstrapConfig) *usecase.SweeperUseCase {
	// setup repositories
	orderRepository := repository.NewOrderRepository(config.DB)
	driverRepository := repository.NewDriverRepository(config.DB, config.Redis)
	offerRepository := repository.NewOfferRepository(config.DB)

	// setup event producers
	statusProducer := messaging.NewOrderStatusProducer(config.Producer, config.Log)
	escalationProducer := messaging.NewOrderEscalatedProducer(config.Producer, config.Log)
	offerProducer := messaging.NewOfferProducer(config.Producer, config.Log)
	assignmentProducer := messaging.NewDriverAssignedProducer(config.Producer, config.Log)

	dispatchQueue := scheduler.NewDispatchScheduler(config.AsynqClient, config.Log)

	// setup use cases
	orderUseCase := usecase.NewOrderUseCase(
		config.Log,
		config.Validate,
		config.Config,
		orderRepository,
		driverRepository,
		offerRepository,
		statusProducer,
		dispatchQueue,
		config.Geoservice.MapsClient(),
	)

	dispatchUseCase := usecase.NewDispatchUseCase(
		config.Log,
		config.Validate,
		config.Config,
		orderRepository,
		driverRepository,
		offerRepository,
		offerProducer,
		assignmentProducer,
		escalationProducer,
		dispatchQueue,
	)

	driverUseCase := usecase.NewDriverUseCase(
		config.Log,
		config.Validate,
		config.Config,
		driverRepository,
		orderRepository,
	)

	sweeperUseCase := usecase.NewSweeperUseCase(
		config.Log,
		config.Config,
		orderRepository,
		offerRepository,
		dispatchUseCase,
		escalationProducer,
	)

	// setup controller
	orderController := http.NewOrderController(orderUseCase, config.Log)
	driverController := http.NewDriverController(driverUseCase, dispatchUseCase, config.Log)

	// setup middleware
	authMiddleware := middleware.VerifyBearer(config.Config)

	config.Async.HandleFunc(scheduler.TypeOfferExpire, dispatchUseCase.HandleOfferExpireTask)
	config.Async.HandleFunc(scheduler.TypeDispatchRetry, dispatchUseCase.HandleDispatchRetryTask)

	routeConfig := route.RouteConfig{
		App:              config.App,
		OrderController:  orderController,
		DriverController: driverController,
		AuthMiddleware:   authMiddleware,
	}
	routeConfig.Setup()

	return sweeperUseCase
}
