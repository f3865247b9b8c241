package desktop

import "github.com/ncruces/zenity"

func zenityNotify(title, message string) error {
	if title == "" {
		title = "deskpilot"
	}
	return zenity.Notify(message, zenity.Title(title))
}
