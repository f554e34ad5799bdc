// Package console is the interactive operator REPL: a readline shell for
// driving a running gateway by hand (subscribe to a stream, place or
// cancel an order, check adapter health) without writing a strategy.
// Grounded on fixclient/repl.go's command-dispatch loop and
// fixclient/display.go's box-drawing tables, generalized from Coinbase
// Prime FIX verbs to the multi-venue ringbus/fabric command surface.
package console

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chzyer/readline"
	"github.com/shopspring/decimal"

	"github.com/primevenue/gateway/exchange"
	"github.com/primevenue/gateway/fabric"
	"github.com/primevenue/gateway/ringbus"
)

// Version is stamped at build time via -ldflags; "dev" otherwise.
var Version = "dev"

// Handle is one venue's console binding: the generic fabric.VenueAdapter
// used for order entry and state, plus the venue's own subscribe verbs,
// which differ enough between Binance (stream strings built from symbol
// and interval) and OKX (channel name plus instID) that no single
// interface captures both — the caller (cmd/gateway) closes over each
// concrete adapter's methods instead.
type Handle struct {
	Name        string
	Adapter     fabric.VenueAdapter
	Subscribe   func(kind, symbol string) error
	Unsubscribe func(kind, symbol string) error
}

// Console is the REPL state: the set of registered venue handles and the
// readline instance reading operator input.
type Console struct {
	engine *fabric.Engine
	venues map[string]*Handle
	order  []string // display order, stable across runs

	watchID uint32
	watcher *watchListener
}

// New builds a Console bound to engine and the given venue handles.
func New(engine *fabric.Engine, handles []*Handle) *Console {
	c := &Console{
		engine: engine,
		venues: make(map[string]*Handle, len(handles)),
	}
	for _, h := range handles {
		c.venues[strings.ToLower(h.Name)] = h
		c.order = append(c.order, strings.ToLower(h.Name))
	}
	sort.Strings(c.order)
	return c
}

// Run starts the readline loop and blocks until the operator types `exit`
// or sends EOF (Ctrl-D).
func (c *Console) Run() error {
	var venueItems []readline.PrefixCompleterInterface
	for _, name := range c.order {
		venueItems = append(venueItems, readline.PcItem(name))
	}

	completer := readline.NewPrefixCompleter(
		readline.PcItem("subscribe", venueItems...),
		readline.PcItem("unsubscribe", venueItems...),
		readline.PcItem("order", venueItems...),
		readline.PcItem("cancel", venueItems...),
		readline.PcItem("replace", venueItems...),
		readline.PcItem("orders", venueItems...),
		readline.PcItem("watch", venueItems...),
		readline.PcItem("unwatch"),
		readline.PcItem("status"),
		readline.PcItem("help"),
		readline.PcItem("version"),
		readline.PcItem("exit"),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "gateway> ",
		HistoryFile:     "/tmp/gateway_console_history",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("console: init readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			break
		}

		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}

		switch strings.ToLower(parts[0]) {
		case "subscribe":
			c.handleSubscribe(parts)
		case "unsubscribe":
			c.handleUnsubscribe(parts)
		case "order":
			c.handleOrder(parts)
		case "cancel":
			c.handleCancel(parts)
		case "replace":
			c.handleReplace(parts)
		case "orders":
			c.handleOrders(parts)
		case "status":
			c.handleStatus()
		case "watch":
			c.handleWatch(parts)
		case "unwatch":
			c.handleUnwatch()
		case "help":
			c.displayHelp()
		case "version":
			fmt.Println(Version)
		case "exit":
			return nil
		default:
			fmt.Println("Unknown command. Type 'help' for available commands.")
		}
	}
	return nil
}

func (c *Console) venue(name string) (*Handle, bool) {
	h, ok := c.venues[strings.ToLower(name)]
	return h, ok
}

func (c *Console) displayHelp() {
	fmt.Print(`Commands:
  subscribe <venue> <symbol> <kind>     - kind: ticker|trades|depth|kline|markprice
  unsubscribe <venue> <symbol> <kind>   - stop a subscription
  order <venue> <buy|sell> <symbol> <qty> [price] [--type T] [--tif T]
                                         - submit a new order
  cancel <venue> <symbol> <clientOrderId>
  replace <venue> <symbol> <clientOrderId> [--qty Q] [--price P]
  orders [venue]                        - list open orders
  watch <venue> <symbol>                - print live market events for a symbol
  unwatch                                - stop the active watch
  status                                 - show adapter connection state
  help, version, exit
`)
}

// --- market data ---

func (c *Console) handleSubscribe(parts []string) {
	if len(parts) < 4 {
		fmt.Println("Usage: subscribe <venue> <symbol> <ticker|trades|depth|kline|markprice>")
		return
	}
	h, ok := c.venue(parts[1])
	if !ok {
		fmt.Printf("Unknown venue: %s\n", parts[1])
		return
	}
	symbol := strings.ToUpper(parts[2])
	if err := h.Subscribe(strings.ToLower(parts[3]), symbol); err != nil {
		fmt.Printf("Subscribe failed: %v\n", err)
		return
	}
	fmt.Printf("Subscribed %s %s %s\n", h.Name, symbol, parts[3])
}

func (c *Console) handleUnsubscribe(parts []string) {
	if len(parts) < 4 {
		fmt.Println("Usage: unsubscribe <venue> <symbol> <ticker|trades|depth|kline|markprice>")
		return
	}
	h, ok := c.venue(parts[1])
	if !ok {
		fmt.Printf("Unknown venue: %s\n", parts[1])
		return
	}
	symbol := strings.ToUpper(parts[2])
	if err := h.Unsubscribe(strings.ToLower(parts[3]), symbol); err != nil {
		fmt.Printf("Unsubscribe failed: %v\n", err)
		return
	}
	fmt.Printf("Unsubscribed %s %s %s\n", h.Name, symbol, parts[3])
}

// --- order entry ---

// handleOrder processes new-order requests.
// Usage: order <venue> <buy|sell> <symbol> <qty> [price] [--type T] [--tif T]
func (c *Console) handleOrder(parts []string) {
	if len(parts) < 5 {
		fmt.Print(`Usage: order <venue> <buy|sell> <symbol> <qty> [price] [flags...]

Order Flags:
  --type <market|limit|postonly|fok|ioc>  - order type (default: limit if price given, else market)
  --tif <gtc|ioc|fok|gtx>                 - time in force (default: gtc)

Examples:
  order binance buy BTC-USDT 0.01 50000
  order okx sell ETH-USDT-SWAP 1.5 --type market
`)
		return
	}

	h, ok := c.venue(parts[1])
	if !ok {
		fmt.Printf("Unknown venue: %s\n", parts[1])
		return
	}

	var side ringbus.OrderSide
	switch strings.ToLower(parts[2]) {
	case "buy":
		side = ringbus.SideBuy
	case "sell":
		side = ringbus.SideSell
	default:
		fmt.Println("Error: side must be 'buy' or 'sell'")
		return
	}

	symbol := strings.ToUpper(parts[3])
	qty, err := strconv.ParseFloat(parts[4], 64)
	if err != nil {
		fmt.Printf("Invalid quantity: %v\n", err)
		return
	}

	var price float64
	ordType := ringbus.OrderTypeMarket
	tif := ringbus.TIFGTC
	priceSet := false

	for i := 5; i < len(parts); i++ {
		switch parts[i] {
		case "--type":
			if i+1 < len(parts) {
				i++
				ordType = parseOrdType(parts[i])
			}
		case "--tif":
			if i+1 < len(parts) {
				i++
				tif = parseTif(parts[i])
			}
		default:
			if !strings.HasPrefix(parts[i], "--") && !priceSet {
				if p, err := strconv.ParseFloat(parts[i], 64); err == nil {
					price = p
					priceSet = true
					ordType = ringbus.OrderTypeLimit
				}
			}
		}
	}

	symbolID := h.Adapter.Symbols().Intern(symbol)
	clientID := exchange.NewClientOrderID()

	var cmd ringbus.OrderCommand
	cmd.Kind = ringbus.CmdPlace
	cmd.Side = side
	cmd.OrderType = ordType
	cmd.TimeInForce = tif
	cmd.VenueID = h.Adapter.VenueID()
	cmd.SymbolID = symbolID
	cmd.Quantity = qty
	cmd.Price = price
	cmd.SetClientOrderID(clientID)

	if err := c.engine.Submit(cmd); err != nil {
		fmt.Printf("Order rejected: %v\n", err)
		return
	}

	fmt.Printf("Order submitted: %s %s %s %v @ %v (ClOrdID: %s)\n", h.Name, parts[2], symbol, qty, price, clientID)
}

// handleCancel processes order-cancel requests.
// Usage: cancel <venue> <symbol> <clientOrderId>
func (c *Console) handleCancel(parts []string) {
	if len(parts) < 4 {
		fmt.Println("Usage: cancel <venue> <symbol> <clientOrderId>")
		return
	}
	h, ok := c.venue(parts[1])
	if !ok {
		fmt.Printf("Unknown venue: %s\n", parts[1])
		return
	}
	symbol := strings.ToUpper(parts[2])
	clientID := parts[3]

	var cmd ringbus.OrderCommand
	cmd.Kind = ringbus.CmdCancel
	cmd.VenueID = h.Adapter.VenueID()
	cmd.SymbolID = h.Adapter.Symbols().Intern(symbol)
	cmd.SetClientOrderID(clientID)

	if err := c.engine.Submit(cmd); err != nil {
		fmt.Printf("Cancel rejected: %v\n", err)
		return
	}
	fmt.Printf("Cancel request sent for %s\n", clientID)
}

// handleReplace processes amend (cancel/replace) requests.
// Usage: replace <venue> <symbol> <clientOrderId> [--qty Q] [--price P]
func (c *Console) handleReplace(parts []string) {
	if len(parts) < 4 {
		fmt.Println("Usage: replace <venue> <symbol> <clientOrderId> [--qty Q] [--price P]")
		return
	}
	h, ok := c.venue(parts[1])
	if !ok {
		fmt.Printf("Unknown venue: %s\n", parts[1])
		return
	}
	symbol := strings.ToUpper(parts[2])
	clientID := parts[3]

	order, ok := h.Adapter.Orders().ByClientID(clientID)
	if !ok {
		fmt.Printf("Order not found: %s\n", clientID)
		return
	}

	newQty := mustFloat(order.Quantity)
	newPrice := mustFloat(order.Price)

	for i := 4; i < len(parts); i++ {
		switch parts[i] {
		case "--qty":
			if i+1 < len(parts) {
				i++
				if v, err := strconv.ParseFloat(parts[i], 64); err == nil {
					newQty = v
				}
			}
		case "--price":
			if i+1 < len(parts) {
				i++
				if v, err := strconv.ParseFloat(parts[i], 64); err == nil {
					newPrice = v
				}
			}
		}
	}

	var cmd ringbus.OrderCommand
	cmd.Kind = ringbus.CmdAmend
	cmd.VenueID = h.Adapter.VenueID()
	cmd.SymbolID = h.Adapter.Symbols().Intern(symbol)
	cmd.Quantity = newQty
	cmd.Price = newPrice
	cmd.SetClientOrderID(clientID)

	if err := c.engine.Submit(cmd); err != nil {
		fmt.Printf("Replace rejected: %v\n", err)
		return
	}
	fmt.Printf("Replace request sent for %s -> qty=%v price=%v\n", clientID, newQty, newPrice)
}

// handleOrders lists tracked open orders, either for one venue or all of
// them, mirroring fixclient's box-drawn order table.
func (c *Console) handleOrders(parts []string) {
	var names []string
	if len(parts) >= 2 {
		if _, ok := c.venue(parts[1]); !ok {
			fmt.Printf("Unknown venue: %s\n", parts[1])
			return
		}
		names = []string{strings.ToLower(parts[1])}
	} else {
		names = c.order
	}

	var rows []exchange.Order
	for _, name := range names {
		h := c.venues[name]
		rows = append(rows, h.Adapter.Orders().Open()...)
	}

	if len(rows) == 0 {
		fmt.Println("No open orders")
		return
	}

	fmt.Print(`
Orders:
┌──────────────────────┬─────────────┬──────┬───────────────┬───────────────┬──────────────────┬─────────────┐
│ ClOrdID              │ Symbol      │ Side │ Qty           │ Price         │ Status           │ Filled      │
├──────────────────────┼─────────────┼──────┼───────────────┼───────────────┼──────────────────┼─────────────┤
`)
	for _, o := range rows {
		clOrdID := o.ClientOrderID
		if len(clOrdID) > 20 {
			clOrdID = clOrdID[:17] + "..."
		}
		side := "BUY"
		if o.Side == ringbus.SideSell {
			side = "SELL"
		}
		fmt.Printf("│ %-20s │ %-11s │ %-4s │ %-13s │ %-13s │ %-16s │ %-11s │\n",
			clOrdID, o.Symbol, side, o.Quantity.String(), o.Price.String(), o.State.String(), o.FilledQuantity.String())
	}
	fmt.Println("└──────────────────────┴─────────────┴──────┴───────────────┴───────────────┴──────────────────┴─────────────┘")
}

// --- status & watch ---

func (c *Console) handleStatus() {
	fmt.Println("Venue Status:")
	for _, name := range c.order {
		h := c.venues[name]
		fmt.Printf("  %-10s %s\n", h.Name, h.Adapter.State().String())
	}
}

// watchListener prints every MarketEvent matching the watched symbol to
// stdout as it's dispatched by the fabric, until unwatch stops it. A
// stopped listener stays registered with the fabric but prints nothing.
type watchListener struct {
	id       uint32
	venueID  uint8
	symbolID uint16
	stopped  atomic.Bool
}

func (w *watchListener) ID() uint32 { return w.id }

func (w *watchListener) OnEvent(e fabric.Envelope) {
	if w.stopped.Load() {
		return
	}
	me, ok := e.(*fabric.MarketEvent)
	if !ok || me.VenueID != w.venueID || me.SymbolID != w.symbolID {
		return
	}
	fmt.Printf("[%s] %s venue=%d symbol=%d price=%s qty=%s\n",
		time.Unix(0, me.GenTimeNs).Format("15:04:05.000"), me.Kind, me.VenueID, me.SymbolID, me.Price.String(), me.Qty.String())
}

func (c *Console) handleWatch(parts []string) {
	if len(parts) < 3 {
		fmt.Println("Usage: watch <venue> <symbol>")
		return
	}
	h, ok := c.venue(parts[1])
	if !ok {
		fmt.Printf("Unknown venue: %s\n", parts[1])
		return
	}
	c.handleUnwatch()

	symbol := strings.ToUpper(parts[2])
	symbolID := h.Adapter.Symbols().Intern(symbol)
	c.watchID++
	w := &watchListener{id: c.watchID, venueID: h.Adapter.VenueID(), symbolID: symbolID}
	if err := fabric.RegisterListener[*fabric.MarketEvent](c.engine.Fabric, w, false); err != nil {
		fmt.Printf("Watch failed: %v\n", err)
		return
	}
	c.watcher = w
	fmt.Printf("Watching %s %s\n", h.Name, symbol)
}

func (c *Console) handleUnwatch() {
	if c.watcher != nil {
		c.watcher.stopped.Store(true)
	}
	c.watcher = nil
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func parseOrdType(s string) ringbus.OrderType {
	switch strings.ToLower(s) {
	case "market", "m":
		return ringbus.OrderTypeMarket
	case "limit", "l":
		return ringbus.OrderTypeLimit
	case "postonly", "po":
		return ringbus.OrderTypePostOnly
	case "fok":
		return ringbus.OrderTypeFOK
	case "ioc":
		return ringbus.OrderTypeIOC
	default:
		return ringbus.OrderTypeLimit
	}
}

func parseTif(s string) ringbus.TimeInForce {
	switch strings.ToLower(s) {
	case "gtc":
		return ringbus.TIFGTC
	case "ioc":
		return ringbus.TIFIOC
	case "fok":
		return ringbus.TIFFOK
	case "gtx":
		return ringbus.TIFGTX
	default:
		return ringbus.TIFGTC
	}
}
