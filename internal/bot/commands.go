package bot

// Command constants for Telegram bot commands.
const (
	CommandStart = "/start"
	CommandHelp  = "/help"
	CommandBTC   = "/btc"
	CommandLTC   = "/ltc"
	CommandPrice = "/price"
	// CommandBudda is the historical name of /price, kept as an alias.
	CommandBudda = "/budda"
)

// FixedPriceCommand binds a command to a hardcoded symbol.
type FixedPriceCommand struct {
	Command string
	Symbol  string
}

// FixedPriceCommands are the one-coin shortcuts. Their symbols skip resolver validation.
var FixedPriceCommands = []FixedPriceCommand{
	{Command: CommandBTC, Symbol: "btc"},
	{Command: CommandLTC, Symbol: "ltc"},
}

// PriceCommandNames lists, without the leading slash, every command that queries the market.
func PriceCommandNames() []string {
	names := []string{CommandPrice[1:], CommandBudda[1:]}
	for _, fixed := range FixedPriceCommands {
		names = append(names, fixed.Command[1:])
	}
	return names
}

// menuCommands are advertised in the Telegram command menu, in order. The alias is left out.
var menuCommands = []string{CommandStart, CommandHelp, CommandBTC, CommandLTC, CommandPrice}
