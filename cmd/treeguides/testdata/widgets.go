package ui

func home() Widget {
	title := Text{Value: "Home"}
	return Column{
		Children: []Widget{
			title,
			Row{
				Children: []Widget{
					Button{Label: "ok"},
					Button{Label: "cancel"},
				},
			},
		},
	}
}
