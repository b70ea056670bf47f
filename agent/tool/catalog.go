package tool

// Deps carries the retrieval backends the catalog wires into tools. A nil
// backend leaves its tool registered but answering that it is unconfigured,
// so the model sees a stable tool list either way.
type Deps struct {
	Docs DocumentSearcher
	Web  WebSearcher
}

// NewCatalog builds the full banking tool registry in a fixed order.
func NewCatalog(deps Deps) (*Registry, error) {
	registry := NewRegistry()

	specs := []ToolSpec{
		accountBalanceSpec(),
		myAccountsSpec(),
		accountDetailsSpec(),
		depositSpec(),
		withdrawSpec(),
		transferSpec(),
		purchaseSpec(),
		myTransactionsSpec(),
		accountTransactionsSpec(),
		transactionDetailsSpec(),
		transactionStatsSpec(),
		searchProductsSpec(),
		productDetailsSpec(),
		productsByCategorySpec(),
		featuredProductsSpec(),
		addToCartSpec(),
		myCartSpec(),
		removeFromCartSpec(),
		clearCartSpec(),
		checkoutCartSpec(),
		myGoalsSpec(),
		createGoalSpec(),
		goalAnalysisSpec(),
		financialSummarySpec(),
		searchDocumentsSpec(deps.Docs),
		webSearchSpec(deps.Web),
		calculateSpec(),
	}
	for _, spec := range specs {
		if err := registry.Register(spec); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func MustNewCatalog(deps Deps) *Registry {
	registry, err := NewCatalog(deps)
	if err != nil {
		panic(err)
	}
	return registry
}
