package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/adlytic/addecision/internal/db"
	"github.com/adlytic/addecision/internal/logic"
	"github.com/adlytic/addecision/internal/logic/frequency"
	"github.com/adlytic/addecision/internal/models"
)

// EvaluateTargetingInput describes a targeting evaluation request.
type EvaluateTargetingInput struct {
	AdID string             `json:"ad_id"`
	User models.UserContext `json:"user"`
}

// EvaluateTargetingOutput carries the per-dimension breakdown back to the
// assistant.
type EvaluateTargetingOutput struct {
	Decision models.TargetingDecision `json:"decision"`
}

// CheckFrequencyCapInput describes a frequency cap check.
type CheckFrequencyCapInput struct {
	UserID     string `json:"user_id"`
	AdID       string `json:"ad_id"`
	CampaignID string `json:"campaign_id"`
	OrgID      string `json:"org_id,omitempty"`
	EventType  string `json:"event_type,omitempty"`
}

// CheckFrequencyCapOutput is the cap check verdict.
type CheckFrequencyCapOutput struct {
	Result models.FrequencyCheckResult `json:"result"`
}

// RecommendedCapsInput asks for the effective cap settings of a campaign.
type RecommendedCapsInput struct {
	CampaignID string `json:"campaign_id"`
	OrgID      string `json:"org_id,omitempty"`
}

// RecommendedCapsOutput carries the effective limit and window pairs.
type RecommendedCapsOutput struct {
	Caps models.RecommendedCaps `json:"caps"`
}

// DecisionServer holds the engine for the MCP tool handlers.
type DecisionServer struct {
	engine *logic.DecisionEngine
	logger *zap.Logger
}

// EvaluateTargeting implements the evaluate_targeting tool.
func (s *DecisionServer) EvaluateTargeting(ctx context.Context, req *mcp.CallToolRequest, input EvaluateTargetingInput) (*mcp.CallToolResult, EvaluateTargetingOutput, error) {
	if input.AdID == "" {
		return nil, EvaluateTargetingOutput{}, fmt.Errorf("ad_id is required")
	}
	decision, err := s.engine.Evaluate(input.AdID, input.User)
	if err != nil {
		return nil, EvaluateTargetingOutput{}, fmt.Errorf("evaluate targeting: %w", err)
	}
	return nil, EvaluateTargetingOutput{Decision: decision}, nil
}

// CheckFrequencyCap implements the check_frequency_cap tool.
func (s *DecisionServer) CheckFrequencyCap(ctx context.Context, req *mcp.CallToolRequest, input CheckFrequencyCapInput) (*mcp.CallToolResult, CheckFrequencyCapOutput, error) {
	if input.UserID == "" || input.AdID == "" || input.CampaignID == "" {
		return nil, CheckFrequencyCapOutput{}, fmt.Errorf("user_id, ad_id and campaign_id are required")
	}
	eventType := input.EventType
	if eventType == "" {
		eventType = models.EventImpression
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	result, err := s.engine.CheckFrequencyCap(ctx, input.UserID, input.AdID, input.CampaignID, input.OrgID, eventType)
	if err != nil {
		return nil, CheckFrequencyCapOutput{}, fmt.Errorf("check frequency cap: %w", err)
	}
	return nil, CheckFrequencyCapOutput{Result: result}, nil
}

// GetRecommendedFrequencyCaps implements the get_recommended_frequency_caps tool.
func (s *DecisionServer) GetRecommendedFrequencyCaps(ctx context.Context, req *mcp.CallToolRequest, input RecommendedCapsInput) (*mcp.CallToolResult, RecommendedCapsOutput, error) {
	if input.CampaignID == "" {
		return nil, RecommendedCapsOutput{}, fmt.Errorf("campaign_id is required")
	}
	caps := s.engine.GetRecommendedFrequencyCaps(input.CampaignID, input.OrgID)
	return nil, RecommendedCapsOutput{Caps: caps}, nil
}

func main() {
	// Logger must write to stderr: stdout carries the MCP stdio transport.
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.NameKey = "logger"
	cfg.EncoderConfig.CallerKey = "caller"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.StacktraceKey = "stacktrace"

	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("addecision-mcp").With(zap.String("service", "addecision-mcp"))

	logger.Info("Starting ad decision MCP server")

	postgresDSN := os.Getenv("POSTGRES_DSN")
	if postgresDSN == "" {
		logger.Fatal("POSTGRES_DSN environment variable is required")
	}

	pg, err := db.InitPostgres(postgresDSN, 10, 5, 30*time.Minute)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pg.Close()

	adDataStore := models.NewInMemoryAdDataStore()
	if err := db.LoadCatalog(pg, adDataStore); err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}
	logger.Info("Catalog loaded",
		zap.Int("ads", len(adDataStore.GetAllAds())),
		zap.Int("campaigns", len(adDataStore.GetAllCampaigns())),
		zap.Int("policies", len(adDataStore.GetAllPolicies())))

	var counterStore frequency.Store
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisStore, err := db.InitRedis(redisAddr)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisStore.Close()
		counterStore = frequency.NewRedisStore(redisStore)
	} else {
		logger.Info("REDIS_ADDR not set, using in-memory frequency store")
		counterStore = frequency.NewMemoryStore()
	}

	capService := frequency.NewCapService(counterStore, adDataStore, nil, nil, 0, logger)
	evaluator := logic.NewTargetingEvaluator(adDataStore, logger)
	engine := logic.NewDecisionEngine(evaluator, capService, nil, logic.EngineOptions{}, logger)

	decisionServer := &DecisionServer{engine: engine, logger: logger}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "addecision",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "evaluate_targeting",
		Description: "Evaluate how well an ad's targeting criteria match a user across geo, device, interest, demographic and behavior dimensions",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"ad_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad to evaluate",
				},
				"user": map[string]interface{}{
					"type":        "object",
					"description": "User context: geo, device, interests, demographics, behaviors",
				},
			},
			"required": []string{"ad_id", "user"},
		},
	}, decisionServer.EvaluateTargeting)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_frequency_cap",
		Description: "Check whether a user is still under the frequency cap for an ad without recording an event",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "User identifier",
				},
				"ad_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad identifier",
				},
				"campaign_id": map[string]interface{}{
					"type":        "string",
					"description": "Campaign the ad belongs to",
				},
				"org_id": map[string]interface{}{
					"type":        "string",
					"description": "Organization scope (optional)",
				},
				"event_type": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"impression", "click"},
					"description": "Event type (optional, defaults to impression)",
				},
			},
			"required": []string{"user_id", "ad_id", "campaign_id"},
		},
	}, decisionServer.CheckFrequencyCap)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_recommended_frequency_caps",
		Description: "Get the effective frequency cap settings for a campaign, including defaults when no policy is configured",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"campaign_id": map[string]interface{}{
					"type":        "string",
					"description": "Campaign identifier",
				},
				"org_id": map[string]interface{}{
					"type":        "string",
					"description": "Organization scope (optional)",
				},
			},
			"required": []string{"campaign_id"},
		},
	}, decisionServer.GetRecommendedFrequencyCaps)

	stdioTransport := &mcp.StdioTransport{}

	var logBuffer bytes.Buffer
	loggingTransport := &mcp.LoggingTransport{
		Transport: stdioTransport,
		Writer:    &logBuffer,
	}

	logger.Info("MCP server running via stdio")

	if err := server.Run(context.Background(), loggingTransport); err != nil {
		logger.Fatal("Server error", zap.Error(err), zap.String("mcp_logs", logBuffer.String()))
	}
}
