package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ashendes/welcome-home/internal/addons"
	"github.com/ashendes/welcome-home/internal/cart"
	"github.com/ashendes/welcome-home/internal/client"
	"github.com/ashendes/welcome-home/internal/models"
	"github.com/ashendes/welcome-home/internal/pricing"
)

const helpText = `Commands:
  groceries [category]   list the catalog with prices
  add ID                 put an item in the cart
  inc ID | dec ID        change a line's quantity
  rm ID                  remove a line
  cart                   show the cart, add-ons and totals
  addon [KEY]            list add-ons, or toggle one
  checkout               submit the cart as an arrival order
  orders                 list your orders
  order ID               show one order
  register | login       sign in
  logout | me            end or show the session
  help | quit`

// app is the single-threaded command loop. Cart and add-on state are only
// touched from run.
type app struct {
	client   *client.Client
	session  *client.Session
	cart     *cart.Cart
	addOns   *addons.Selector
	products map[int]models.CatalogItem

	in      *bufio.Scanner
	out     io.Writer
	timeout time.Duration
}

func newApp(c *client.Client, in io.Reader, out io.Writer, timeout time.Duration) *app {
	return &app{
		client:   c,
		session:  client.NewSession(c),
		cart:     cart.New(),
		addOns:   addons.NewSelector(),
		products: make(map[int]models.CatalogItem),
		in:       bufio.NewScanner(in),
		out:      out,
		timeout:  timeout,
	}
}

func (a *app) run(ctx context.Context) {
	for {
		fmt.Fprint(a.out, "> ")
		line, ok := a.readLine()
		if !ok || ctx.Err() != nil {
			fmt.Fprintln(a.out)
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if !a.dispatch(ctx, fields[0], fields[1:]) {
			return
		}
	}
}

func (a *app) readLine() (string, bool) {
	if !a.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.in.Text()), true
}

func (a *app) prompt(label string) string {
	fmt.Fprintf(a.out, "%s: ", label)
	line, _ := a.readLine()
	return line
}

// dispatch runs one command and reports whether the loop should continue.
func (a *app) dispatch(ctx context.Context, cmd string, args []string) bool {
	cmdCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var err error
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "groceries":
		err = a.groceries(cmdCtx, strings.Join(args, " "))
	case "add":
		err = a.add(cmdCtx, args)
	case "inc", "dec", "rm":
		err = a.adjust(cmd, args)
	case "cart":
		a.showCart()
	case "addon", "addons":
		err = a.toggleAddOn(args)
	case "checkout":
		err = a.checkout(cmdCtx)
	case "orders":
		err = a.orders(cmdCtx)
	case "order":
		err = a.order(cmdCtx, args)
	case "register":
		err = a.register(cmdCtx)
	case "login":
		err = a.login(cmdCtx)
	case "logout":
		err = a.session.Logout(cmdCtx)
		if err == nil {
			fmt.Fprintln(a.out, "Logged out.")
		}
	case "me":
		err = a.me(cmdCtx)
	case "help", "?":
		fmt.Fprintln(a.out, helpText)
	case "quit", "exit":
		return false
	default:
		err = fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
	if err != nil {
		fmt.Fprintln(a.out, "Error:", describe(err))
		log.WithFields(log.Fields{"command": cmd, "error": err.Error()}).Debug("Command failed")
	}
	return true
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	var netErr *client.NetworkError
	var apiErr *client.APIError
	switch {
	case errors.As(err, &netErr):
		return client.MsgNetwork
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Cancelled."
	default:
		return err.Error()
	}
}

func parseID(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("expected one item id")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid item id %q", args[0])
	}
	return id, nil
}

func (a *app) groceries(ctx context.Context, category string) error {
	items, err := a.client.Groceries(ctx, category)
	if err != nil {
		return err
	}
	client.Deliver(ctx, func() {
		for _, it := range items {
			a.products[it.ID] = it
		}
		w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE")
		for _, p := range pricing.PriceAll(items) {
			fmt.Fprintf(w, "%d\t%s\t%s\t$%s\n", p.ID, p.Name, p.Category, p.Price)
		}
		w.Flush()
	})
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	item, ok := a.products[id]
	if !ok {
		if err := a.loadProducts(ctx); err != nil {
			return err
		}
		if item, ok = a.products[id]; !ok {
			return fmt.Errorf("no grocery with id %d", id)
		}
	}
	if item.InStock != nil && !*item.InStock {
		return fmt.Errorf("%s is out of stock", item.Name)
	}
	line := a.cart.Add(item)
	fmt.Fprintf(a.out, "%s x%d ($%s each)\n", line.Name, line.Quantity, line.Price)
	return nil
}

func (a *app) loadProducts(ctx context.Context) error {
	items, err := a.client.Groceries(ctx, "")
	if err != nil {
		return err
	}
	client.Deliver(ctx, func() {
		for _, it := range items {
			a.products[it.ID] = it
		}
	})
	return nil
}

func (a *app) adjust(cmd string, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	var changed bool
	switch cmd {
	case "inc":
		changed = a.cart.Increment(id)
	case "dec":
		changed = a.cart.Decrement(id)
	case "rm":
		changed = a.cart.Remove(id)
	}
	if !changed {
		if _, inCart := a.cart.Get(id); !inCart {
			return fmt.Errorf("item %d is not in the cart", id)
		}
	}
	a.showCart()
	return nil
}

func (a *app) totals() models.Totals {
	return pricing.ComputeTotals(a.cart.Subtotal(), a.addOns.SelectedSubtotal())
}

func (a *app) showCart() {
	if a.cart.Len() == 0 {
		fmt.Fprintln(a.out, "Cart is empty.")
	} else {
		w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tQTY\tPRICE\tLINE")
		for _, l := range a.cart.Lines() {
			fmt.Fprintf(w, "%d\t%s\t%d\t$%s\t$%s\n", l.ItemID, l.Name, l.Quantity, l.Price, l.Total().Round2())
		}
		w.Flush()
	}
	sel := a.addOns.Selection()
	for _, key := range models.AddOnKeys {
		if sel.Selected(key) {
			price, _ := addons.Price(key)
			fmt.Fprintf(a.out, "  + %s ($%s)\n", addons.Label(key), price)
		}
	}
	t := a.totals()
	fmt.Fprintf(a.out, "Groceries $%s  Add-ons $%s  Total $%s\n", t.Groceries, t.AddOns, t.GrandTotal)
}

func (a *app) toggleAddOn(args []string) error {
	if len(args) == 0 {
		sel := a.addOns.Selection()
		for _, key := range models.AddOnKeys {
			price, _ := addons.Price(key)
			mark := " "
			if sel.Selected(key) {
				mark = "x"
			}
			fmt.Fprintf(a.out, "[%s] %-9s %s ($%s)\n", mark, key, addons.Label(key), price)
		}
		return nil
	}
	on, err := a.addOns.Toggle(args[0])
	if err != nil {
		return err
	}
	state := "off"
	if on {
		state = "on"
	}
	fmt.Fprintf(a.out, "%s is %s. Add-ons $%s\n", addons.Label(args[0]), state, a.addOns.SelectedSubtotal())
	return nil
}

func (a *app) checkout(ctx context.Context) error {
	if a.cart.Len() == 0 {
		return errors.New("cart is empty, add groceries first")
	}
	if _, ok := a.session.User(); !ok {
		fmt.Fprintln(a.out, "Not signed in; the server may refuse the order.")
	}

	req := models.CreateOrderRequest{
		ArrivalDate:  a.prompt("Arrival date (YYYY-MM-DD)"),
		ArrivalTime:  a.prompt("Arrival time (HH:MM, optional)"),
		Address:      a.prompt("Address"),
		Notes:        a.prompt("Notes (optional)"),
		ContactEmail: a.prompt("Contact email (optional)"),
		Items:        a.cart.Items(),
		AddOns:       addons.ToMap(a.addOns.Selection()),
	}
	shown := a.totals()
	req.Totals = &shown

	order, err := a.client.CreateOrder(ctx, req)
	if err != nil {
		return err
	}
	client.Deliver(ctx, func() {
		a.cart.Clear()
		a.addOns.Reset()
		fmt.Fprintf(a.out, "Order %s %s. Total $%s\n", order.ID, order.Status, order.Totals.GrandTotal)
	})
	return nil
}

func (a *app) orders(ctx context.Context) error {
	list, err := a.client.MyOrders(ctx)
	if err != nil {
		return err
	}
	client.Deliver(ctx, func() {
		if len(list) == 0 {
			fmt.Fprintln(a.out, "No orders yet.")
			return
		}
		w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tARRIVAL\tADDRESS\tTOTAL\tSTATUS")
		for _, o := range list {
			fmt.Fprintf(w, "%s\t%s %s\t%s\t$%s\t%s\n", o.ID, o.ArrivalDate, o.ArrivalTime, o.Address, o.Totals.GrandTotal, o.Status)
		}
		w.Flush()
	})
	return nil
}

func (a *app) order(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("expected one order id")
	}
	o, err := a.client.Order(ctx, args[0])
	if err != nil {
		return err
	}
	client.Deliver(ctx, func() {
		fmt.Fprintf(a.out, "Order %s (%s), created %s\n", o.ID, o.Status, o.CreatedAt.Local().Format(time.RFC1123))
		fmt.Fprintf(a.out, "Arriving %s %s at %s\n", o.ArrivalDate, o.ArrivalTime, o.Address)
		if o.Notes != "" {
			fmt.Fprintf(a.out, "Notes: %s\n", o.Notes)
		}
		for _, it := range o.Items {
			fmt.Fprintf(a.out, "  %d x %s @ $%s\n", it.Quantity, it.Name, it.Price)
		}
		keys := make([]string, 0, len(models.AddOnKeys))
		for _, key := range models.AddOnKeys {
			if o.AddOns.Selected(key) {
				keys = append(keys, addons.Label(key))
			}
		}
		if len(keys) > 0 {
			fmt.Fprintf(a.out, "Add-ons: %s\n", strings.Join(keys, ", "))
		}
		fmt.Fprintf(a.out, "Groceries $%s  Add-ons $%s  Total $%s\n", o.Totals.Groceries, o.Totals.AddOns, o.Totals.GrandTotal)
	})
	return nil
}

func (a *app) register(ctx context.Context) error {
	name := a.prompt("Name")
	email := a.prompt("Email")
	password := a.prompt("Password")
	u, err := a.session.Register(ctx, name, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s.\n", displayName(u))
	return nil
}

func (a *app) login(ctx context.Context) error {
	email := a.prompt("Email")
	password := a.prompt("Password")
	u, err := a.session.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s.\n", displayName(u))
	return nil
}

func (a *app) me(ctx context.Context) error {
	u, ok, err := a.session.Refresh(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	fmt.Fprintf(a.out, "Signed in as %s <%s>.\n", displayName(u), u.Email)
	return nil
}

func displayName(u models.PublicUser) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
