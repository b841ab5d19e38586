package specialist

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	catalogx "github.com/tanpawarit/paper-supply-agents/agent/catalog"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
	llmx "github.com/tanpawarit/paper-supply-agents/agent/llm"
	promptx "github.com/tanpawarit/paper-supply-agents/agent/prompt"
	"github.com/tanpawarit/paper-supply-agents/agent/tool"
)

var _ contractx.WorkerFactory = (*Factory)(nil)

// Models are shared by reference across every worker the factory builds.
type Models struct {
	Matcher   einomodel.BaseChatModel
	Inventory einomodel.BaseChatModel
	Quoting   einomodel.BaseChatModel
	Sales     einomodel.BaseChatModel
}

func (m Models) validate() error {
	if m.Matcher == nil || m.Inventory == nil || m.Quoting == nil || m.Sales == nil {
		return fmt.Errorf("%w: a chat model is required for every worker", contractx.ErrValidation)
	}
	return nil
}

// Factory builds fresh workers. Nothing it hands out shares mutable state
// other than the ledger.
type Factory struct {
	ledger   contractx.Ledger
	catalog  *catalogx.Catalog
	models   Models
	prompts  promptx.PromptSet
	maxSteps int
}

func NewFactory(
	ledger contractx.Ledger,
	c *catalogx.Catalog,
	models Models,
	prompts promptx.PromptSet,
	maxSteps int,
) (*Factory, error) {
	if ledger == nil {
		return nil, fmt.Errorf("%w: ledger is required", contractx.ErrValidation)
	}
	if c == nil {
		return nil, catalogx.ErrEmptyCatalog
	}
	if err := models.validate(); err != nil {
		return nil, err
	}
	if err := prompts.Validate(); err != nil {
		return nil, err
	}
	if maxSteps <= 0 {
		maxSteps = tool.DefaultMaxSteps
	}
	return &Factory{
		ledger:   ledger,
		catalog:  c,
		models:   models,
		prompts:  prompts,
		maxSteps: maxSteps,
	}, nil
}

// NewFactoryFromConfig builds one OpenRouter model per worker kind.
func NewFactoryFromConfig(
	ctx context.Context,
	cfg llmx.Config,
	ledger contractx.Ledger,
	c *catalogx.Catalog,
	maxSteps int,
) (*Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	build := func(agentType contractx.AgentType) (einomodel.BaseChatModel, error) {
		modelCfg := cfg.OpenRouterFor(agentType)
		m, err := modelCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, agentType, err)
		}
		return m, nil
	}

	var (
		models Models
		err    error
	)
	if models.Matcher, err = build(contractx.AgentTypeMatcher); err != nil {
		return nil, err
	}
	if models.Inventory, err = build(contractx.AgentTypeInventory); err != nil {
		return nil, err
	}
	if models.Quoting, err = build(contractx.AgentTypeQuoting); err != nil {
		return nil, err
	}
	if models.Sales, err = build(contractx.AgentTypeSales); err != nil {
		return nil, err
	}

	return NewFactory(ledger, c, models, promptx.LoadPromptSet(), maxSteps)
}

func (f *Factory) matcher(ctx context.Context) (*catalogx.Matcher, error) {
	m, err := catalogx.NewMatcher(ctx, f.catalog, f.models.Matcher, f.prompts.CatalogMatch)
	if err != nil {
		return nil, fmt.Errorf("%w: create matcher: %v", contractx.ErrModelInvoke, err)
	}
	return m, nil
}

func (f *Factory) Inventory(ctx context.Context) (contractx.InventoryWorker, error) {
	matcher, err := f.matcher(ctx)
	if err != nil {
		return nil, err
	}
	ex, err := newExtractor(ctx, f.models.Inventory, f.prompts.ExtractItems, "inventory.extract_graph")
	if err != nil {
		return nil, err
	}
	tools, err := tool.NewToolset(contractx.AgentTypeInventory, tool.NewBudget(f.maxSteps),
		tool.InventoryTools(tool.Deps{Ledger: f.ledger, Catalog: f.catalog, Matcher: matcher})...)
	if err != nil {
		return nil, err
	}
	return newInventoryWorker(ctx, ex, tools)
}

func (f *Factory) Quoting(ctx context.Context) (contractx.QuotingWorker, error) {
	matcher, err := f.matcher(ctx)
	if err != nil {
		return nil, err
	}
	ex, err := newExtractor(ctx, f.models.Quoting, f.prompts.ExtractItems, "quoting.extract_graph")
	if err != nil {
		return nil, err
	}
	tools, err := tool.NewToolset(contractx.AgentTypeQuoting, tool.NewBudget(f.maxSteps),
		tool.QuotingTools(tool.Deps{Ledger: f.ledger, Catalog: f.catalog, Matcher: matcher})...)
	if err != nil {
		return nil, err
	}
	return newQuotingWorker(ctx, ex, matcher, f.catalog, tools)
}

func (f *Factory) Sales(ctx context.Context) (contractx.SalesWorker, error) {
	matcher, err := f.matcher(ctx)
	if err != nil {
		return nil, err
	}
	ex, err := newExtractor(ctx, f.models.Sales, f.prompts.ParseOrder, "sales.parse_graph")
	if err != nil {
		return nil, err
	}
	tools, err := tool.NewToolset(contractx.AgentTypeSales, tool.NewBudget(f.maxSteps),
		tool.SalesTools(tool.Deps{Ledger: f.ledger, Catalog: f.catalog, Matcher: matcher})...)
	if err != nil {
		return nil, err
	}
	return newSalesWorker(ctx, ex, matcher, f.catalog, tools)
}
