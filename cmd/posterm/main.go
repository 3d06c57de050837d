package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/shefospecial/victoriasystem/internal/api"
	"github.com/shefospecial/victoriasystem/internal/cart"
	"github.com/shefospecial/victoriasystem/internal/catalog"
	"github.com/shefospecial/victoriasystem/internal/config"
	"github.com/shefospecial/victoriasystem/internal/domain"
	"github.com/shefospecial/victoriasystem/internal/kv"
	"github.com/shefospecial/victoriasystem/internal/pos"
	"github.com/shefospecial/victoriasystem/internal/pubsub"
	"github.com/shefospecial/victoriasystem/internal/receipt"
	"github.com/shefospecial/victoriasystem/internal/session"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := openStore(ctx, cfg)
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	client := api.New(cfg.APIBaseURL)
	sess := session.New(store)
	if err := ensureLogin(ctx, cfg, client, sess); err != nil {
		log.Printf("login unavailable, continuing without a session: %v", err)
	}

	broker := pubsub.NewBroker()
	cache := catalog.NewCache(client, cfg.ProductsPageSize)
	if err := cache.Load(ctx); err != nil {
		// Advisory only: the operator can still sell against whatever
		// was last cached once the watcher catches up.
		log.Printf("initial catalog load failed: %v", err)
	}
	watcher := catalog.NewWatcher(client, cache, broker, cfg.PollInterval, cfg.QuietWindow)
	go watcher.Run(ctx)

	basket := cart.Restore(ctx, store)
	formatter := receipt.Formatter{StoreName: cfg.StoreName, StorePhone: cfg.StorePhone}
	printer := receipt.NewPrinter(formatter, receipt.WriterSink{W: os.Stdout}, nil, cfg.PrintRetryDelays, cfg.PrintCloseTimeout)
	checkout := pos.NewCheckout(client, basket, printer)
	customers := pos.NewCustomers(client, checkout)
	search := pos.NewSearch(cache, basket, cfg.ExactCodeMinLength)

	term := &terminal{
		cfg:       cfg,
		cache:     cache,
		watcher:   watcher,
		cart:      basket,
		search:    search,
		checkout:  checkout,
		customers: customers,
		client:    client,
		formatter: formatter,
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	go func() {
		for range broker.Subscribe(pubsub.TopicCatalogReloaded) {
			log.Printf("[posterm] catalog reloaded: %d products", cache.Len())
		}
	}()

	term.run(ctx)
	log.Println("terminal stopped")
}

// openStore picks the durable backend: redis when configured and
// reachable, else a sqlite file, else memory as a last resort.
func openStore(ctx context.Context, cfg config.Config) kv.Store {
	if cfg.RedisAddr != "" {
		redisStore := kv.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TerminalID)
		if err := redisStore.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), trying sqlite", err)
		} else {
			log.Println("store: redis")
			return redisStore
		}
	}

	path := filepath.Join(cfg.DataDir, "posterm.db")
	sqliteStore, err := kv.NewSQLite(path)
	if err != nil {
		log.Printf("sqlite unavailable (%v), cart will not survive restarts", err)
		return kv.NewMemory()
	}
	log.Printf("store: sqlite (%s)", path)
	return sqliteStore
}

func ensureLogin(ctx context.Context, cfg config.Config, client *api.Client, sess *session.Session) error {
	token, err := sess.Token(ctx)
	if err == nil {
		client.SetToken(token)
		return nil
	}
	if !errors.Is(err, session.ErrNoSession) {
		return err
	}
	if cfg.Username == "" {
		return errors.New("no stored session and no credentials configured")
	}

	token, err = client.Login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		return err
	}
	client.SetToken(token)
	if err := sess.Save(ctx, token); err != nil {
		log.Printf("WARN: failed to persist session: %v", err)
	}
	return nil
}

type terminal struct {
	cfg       config.Config
	cache     *catalog.Cache
	watcher   *catalog.Watcher
	cart      *cart.Cart
	search    *pos.Search
	checkout  *pos.Checkout
	customers *pos.Customers
	client    *api.Client
	formatter receipt.Formatter

	lastCustomers []domain.Customer
}

func (t *terminal) run(ctx context.Context) {
	fmt.Printf("%s point of sale (%s)\n", t.cfg.StoreName, t.cfg.TerminalID)
	fmt.Println("Scan a barcode or type a product name. /help for commands.")

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		t.prompt()
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if strings.TrimSpace(line) == "/quit" {
				return
			}
			t.handle(ctx, line)
		}
	}
}

func (t *terminal) prompt() {
	hint := ""
	if t.watcher.StaleHint() {
		hint = " [catalog may be stale, /refresh]"
	}
	fmt.Printf("[%d items, total %s]%s> ", t.cart.ItemCount(), t.cart.Total().StringFixed(2), hint)
}

func (t *terminal) handle(ctx context.Context, line string) {
	if strings.HasPrefix(strings.TrimSpace(line), "/") {
		t.command(ctx, strings.Fields(strings.TrimSpace(line)))
		return
	}

	if strings.TrimSpace(line) == "" {
		if t.search.Submit(ctx) {
			t.showCart()
		}
		return
	}

	if t.search.SetInput(ctx, line) {
		// Exact barcode: already in the cart.
		t.showCart()
		return
	}
	t.showResults()
}

func (t *terminal) command(ctx context.Context, args []string) {
	switch args[0] {
	case "/help":
		fmt.Println(`  <text>            search by name or scan a barcode
  <enter>           select the highlighted (or first) result
  /down /up         move the result highlight
  /pick <n>         select result n
  /cart             show the cart
  /qty <id> <n>     set line quantity (0 removes)
  /price <id> <p>   override line price
  /rm <id>          remove a line
  /clear            clear the cart
  /customer <q>     search customers
  /attach <id>      attach a listed customer
  /newcustomer <name> <phone>
  /detach           detach the customer
  /pay              checkout and print
  /paynp            checkout without printing
  /reprint <id>     reprint a past invoice
  /refresh          force a catalog reload
  /quit`)

	case "/down":
		t.search.MoveDown()
		t.showResults()
	case "/up":
		t.search.MoveUp()
		t.showResults()
	case "/pick":
		if len(args) == 2 {
			if n, err := strconv.Atoi(args[1]); err == nil && t.search.SelectIndex(ctx, n-1) {
				t.showCart()
				return
			}
		}
		fmt.Println("usage: /pick <result number>")

	case "/cart":
		t.showCart()
	case "/qty":
		if len(args) == 3 {
			id, err1 := strconv.ParseInt(args[1], 10, 64)
			qty, err2 := strconv.Atoi(args[2])
			if err1 == nil && err2 == nil {
				t.cart.SetQuantity(ctx, id, qty)
				t.showCart()
				return
			}
		}
		fmt.Println("usage: /qty <product id> <quantity>")
	case "/price":
		if len(args) == 3 {
			id, err1 := strconv.ParseInt(args[1], 10, 64)
			price, err2 := decimal.NewFromString(args[2])
			if err1 == nil && err2 == nil {
				t.cart.SetPrice(ctx, id, price)
				t.showCart()
				return
			}
		}
		fmt.Println("usage: /price <product id> <price>")
	case "/rm":
		if len(args) == 2 {
			if id, err := strconv.ParseInt(args[1], 10, 64); err == nil {
				t.cart.Remove(ctx, id)
				t.showCart()
				return
			}
		}
		fmt.Println("usage: /rm <product id>")
	case "/clear":
		t.checkout.ClearSale(ctx)
		fmt.Println("cart cleared")

	case "/customer":
		if len(args) < 2 {
			fmt.Println("usage: /customer <query>")
			return
		}
		t.lastCustomers = t.customers.Search(ctx, strings.Join(args[1:], " "))
		if len(t.lastCustomers) == 0 {
			fmt.Println("no customers found")
			return
		}
		for _, c := range t.lastCustomers {
			fmt.Printf("  #%d %s %s (%d pts)\n", c.ID, c.Name, c.Phone, c.LoyaltyPoints)
		}
		fmt.Println("attach with /attach <id>")
	case "/attach":
		if len(args) == 2 {
			if id, err := strconv.ParseInt(args[1], 10, 64); err == nil {
				for _, c := range t.lastCustomers {
					if c.ID == id {
						t.checkout.AttachCustomer(c)
						fmt.Printf("attached %s\n", c.Name)
						return
					}
				}
			}
		}
		fmt.Println("usage: /attach <customer id> (after /customer)")
	case "/newcustomer":
		if len(args) < 3 {
			fmt.Println("usage: /newcustomer <name> <phone>")
			return
		}
		phone := args[len(args)-1]
		name := strings.Join(args[1:len(args)-1], " ")
		customer, err := t.customers.Create(ctx, name, phone)
		if err != nil {
			fmt.Printf("create customer failed: %v\n", err)
			return
		}
		fmt.Printf("created and attached %s\n", customer.Name)
	case "/detach":
		t.checkout.DetachCustomer()
		fmt.Println("customer detached")

	case "/pay", "/paynp":
		t.pay(ctx, args[0] == "/pay")

	case "/reprint":
		if len(args) != 2 {
			fmt.Println("usage: /reprint <invoice id>")
			return
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			fmt.Println("usage: /reprint <invoice id>")
			return
		}
		inv, err := t.client.FetchInvoice(ctx, id)
		if err != nil {
			fmt.Printf("fetch invoice failed: %v\n", err)
			return
		}
		fmt.Print(t.formatter.Format(receipt.FromInvoice(inv)))

	case "/refresh":
		t.watcher.RequestFocus()
		fmt.Println("refresh requested")

	default:
		fmt.Printf("unknown command %s (/help)\n", args[0])
	}
}

func (t *terminal) pay(ctx context.Context, withPrint bool) {
	sale, err := t.checkout.Submit(ctx, withPrint)
	if err != nil {
		switch {
		case errors.Is(err, pos.ErrEmptyCart):
			fmt.Println("the cart is empty, scan something first")
		case errors.Is(err, pos.ErrSubmitInFlight):
			fmt.Println("checkout already in progress")
		default:
			fmt.Printf("checkout failed, cart preserved: %v\n", err)
		}
		return
	}
	fmt.Printf("invoice %s created\n", sale.InvoiceNumber)
}

func (t *terminal) showResults() {
	results := t.search.Results()
	if len(results) == 0 {
		fmt.Println("no matches")
		return
	}
	highlighted := t.search.Highlighted()
	for i, p := range results {
		marker := "  "
		if i == highlighted {
			marker = "> "
		}
		fmt.Printf("%s%d. %s @ %s (stock %d)\n", marker, i+1, p.Name, p.SellingPrice.StringFixed(2), p.Quantity)
	}
}

func (t *terminal) showCart() {
	lines := t.cart.Lines()
	if len(lines) == 0 {
		fmt.Println("cart is empty")
		return
	}
	for _, line := range lines {
		fmt.Printf("  #%d %-24s x%-3d @ %8s = %8s\n",
			line.ProductID, line.Name, line.Quantity,
			line.UnitPrice.StringFixed(2), line.LineTotal().StringFixed(2))
	}
	if customer := t.checkout.Customer(); customer != nil {
		fmt.Printf("  customer: %s\n", customer.Name)
	}
	fmt.Printf("  total: %s\n", t.cart.Total().StringFixed(2))
}
