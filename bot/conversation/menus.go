package conversation

import (
	"github.com/mayak/orderbot/bot/domain"
	"github.com/mayak/orderbot/core/telegram/keyboard"
)

var (
	mainMenu = keyboard.MustBuildMenu([]keyboard.Item{
		{Label: LabelProducts, Action: ActionProducts.Code()},
		{Label: LabelServices, Action: ActionService.Code()},
	})
	serviceMenu = keyboard.MustBuildMenu([]keyboard.Item{
		{Label: LabelDiagnostic, Action: ActionDiagnostic.Code()},
		{Label: LabelRepair, Action: ActionRepair.Code()},
	})
)

func categoryMenu(cats []domain.Category) (keyboard.Menu, error) {
	items := make([]keyboard.Item, 0, len(cats))
	for _, c := range cats {
		items = append(items, keyboard.Item{Label: c.Title, Action: ActionCategory.Code(), Payload: c.Code})
	}
	return keyboard.BuildMenu(items)
}

func productMenu(products []domain.Product) (keyboard.Menu, error) {
	items := make([]keyboard.Item, 0, len(products))
	for _, p := range products {
		items = append(items, keyboard.Item{Label: p.Title, Action: ActionProduct.Code(), Payload: p.Title})
	}
	return keyboard.BuildMenu(items)
}
