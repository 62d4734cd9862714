package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"autovalue/internal/config"
	"autovalue/internal/db"
	"autovalue/internal/domain"
	"autovalue/internal/llm"
	"autovalue/internal/report"
	"autovalue/internal/repository"
	"autovalue/internal/service"
)

const (
	cliEmail    = "cli_test@example.com"
	cliPassword = "cli-test-password"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	accountRepo := repository.NewPgAccountRepository(pool)
	valuationRepo := repository.NewPgValuationRepository(pool)
	sessionRepo := repository.NewPgSessionRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)

	llmClient := llm.New(cfg.LLMProvider, cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, logger)
	userSvc := service.NewUserService(logger, userRepo, accountRepo, nil)
	valuationSvc := service.NewValuationService(logger, valuationRepo, service.ValuationScorer{BasePrice: cfg.ValuationBasePrice})
	contextSvc := service.NewBasicContextService(messageRepo)
	chatSvc := service.NewChatService(logger, sessionRepo, messageRepo, contextSvc, valuationSvc, llmClient)

	user, err := ensureUser(ctx, userSvc)
	if err != nil {
		log.Fatal(err)
	}

	for {
		fmt.Println("===== Asistente de valuacion =====")
		items, err := valuationSvc.ListByUser(ctx, user.ID, 20)
		if err != nil {
			log.Fatalf("listar valuaciones: %v", err)
		}
		for i, v := range items {
			fmt.Printf("[%d] %s -> %s (confianza %d%%)\n", i+1, report.VehicleTitle(v.Vehicle), report.FormatUSD(v.Result.Estimate), v.Result.Confidence)
		}
		fmt.Println("[N] Nueva valuacion")
		fmt.Println("[S] Salir")
		fmt.Print("Selecciona una opcion: ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)

		var selected domain.Valuation
		switch {
		case strings.EqualFold(choice, "S"):
			return
		case strings.EqualFold(choice, "N"):
			v, err := createValuationFlow(ctx, reader, valuationSvc, user.ID)
			if err != nil {
				fmt.Printf("Error creando valuacion: %v\n", err)
				continue
			}
			selected = v
		default:
			idx, err := strconv.Atoi(choice)
			if err != nil || idx < 1 || idx > len(items) {
				fmt.Println("Seleccion invalida.")
				continue
			}
			selected = items[idx-1]
		}

		if err := chatFlow(ctx, reader, chatSvc, user, selected); err != nil {
			log.Printf("error en chat: %v", err)
		}
	}
}

func ensureUser(ctx context.Context, users *service.UserService) (domain.User, error) {
	user, err := users.Authenticate(ctx, cliEmail, cliPassword)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, service.ErrInvalidCredentials) {
		return domain.User{}, err
	}
	return users.Register(ctx, service.RegisterInput{
		Email:       cliEmail,
		Password:    cliPassword,
		DisplayName: "CLI",
	})
}

func createValuationFlow(ctx context.Context, reader *bufio.Reader, valuations *service.ValuationService, userID string) (domain.Valuation, error) {
	mk := readString(reader, "Marca: ")
	model := readString(reader, "Modelo: ")
	year := readIntDefault(reader, "Anio: ", 0)
	mileage := readIntDefault(reader, "Millaje (default 0): ", 0)
	cond := readString(reader, "Condicion (excellent/good/fair/poor, vacio para omitir): ")

	v, err := valuations.Create(ctx, userID, service.CreateValuationInput{
		Vehicle:   domain.VehicleDescriptor{Make: mk, Model: model, Year: year, Mileage: mileage},
		Condition: cond,
	})
	if err != nil {
		return domain.Valuation{}, err
	}
	fmt.Printf("Estimacion: %s (%s a %s)\n",
		report.FormatUSD(v.Result.Estimate),
		report.FormatUSD(v.Result.PriceRange.Low),
		report.FormatUSD(v.Result.PriceRange.High),
	)
	return v, nil
}

func chatFlow(ctx context.Context, reader *bufio.Reader, chatSvc *service.ChatService, user domain.User, v domain.Valuation) error {
	session, err := chatSvc.CreateSession(ctx, user.ID, user.Role, v.ID)
	if err != nil {
		return err
	}

	fmt.Printf("---- Chat sobre %s (escribe 'salir' para terminar) ----\n", report.VehicleTitle(v.Vehicle))
	for {
		fmt.Print("Tu > ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if strings.EqualFold(text, "salir") {
			fmt.Println("Saliendo del chat...")
			return nil
		}

		_, reply, err := chatSvc.SendMessage(ctx, user.ID, session.ID, text)
		if err != nil {
			fmt.Printf("error generando respuesta: %v\n", err)
			continue
		}
		fmt.Printf("Asistente > %s\n", reply.Content)
	}
}

func readString(reader *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	s, _ := reader.ReadString('\n')
	return strings.TrimSpace(s)
}

func readIntDefault(reader *bufio.Reader, prompt string, def int) int {
	s := readString(reader, prompt)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
