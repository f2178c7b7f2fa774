// Package console runs the numbered pharmacy menu over a reader and writer.
package console

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ghuser/pharmacy/pkg/errcli"
	"github.com/ghuser/pharmacy/pkg/health"
	"github.com/ghuser/pharmacy/pkg/logger"
	"github.com/ghuser/pharmacy/services/pharmacy/application/services"
	"github.com/ghuser/pharmacy/services/pharmacy/domain"
)

const menu = `
==== %s ====
1) List medicines
2) List suppliers
3) Add medicine
4) Add supplier
5) Assign supplier
6) Sell
7) Restock
8) Save snapshot
9) Statistics
0) Exit
> `

// errQuit ends the loop when input runs out mid-prompt.
var errQuit = errors.New("input closed")

// Options configures the statistics screen.
type Options struct {
	// Health is probed and printed by the statistics screen.
	Health map[string]health.Checker
	// Metrics writes Prometheus text exposition; only pharmacy_* series are shown.
	Metrics func(io.Writer) error
	Logger  logger.Logger
}

// Console drives a PharmacyService from line-oriented text input.
type Console struct {
	svc  *services.PharmacyService
	in   *bufio.Scanner
	out  io.Writer
	opts Options
}

// New returns a Console reading commands from in and writing to out.
func New(svc *services.PharmacyService, in io.Reader, out io.Writer, opts Options) *Console {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &Console{svc: svc, in: bufio.NewScanner(in), out: out, opts: opts}
}

// Run shows the menu until the user picks 0 or input ends. Action errors are
// printed and never stop the loop.
func (c *Console) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.printf(menu, c.svc.Name())
		choice, ok := c.readLine()
		if !ok {
			c.printf("\n")
			return c.in.Err()
		}

		ctx := logger.WithOperationID(ctx)
		err := c.dispatch(ctx, strings.TrimSpace(choice))
		switch {
		case errors.Is(err, errQuit):
			return nil
		case errors.Is(err, io.EOF):
			c.printf("bye\n")
			return nil
		case err != nil:
			c.opts.Logger.DebugContext(ctx, "console action failed", "choice", choice, "error", err)
			errcli.WriteError(c.out, err)
		}
	}
}

func (c *Console) dispatch(ctx context.Context, choice string) error {
	switch choice {
	case "1":
		return c.listMedicines()
	case "2":
		return c.listSuppliers()
	case "3":
		return c.addMedicine(ctx)
	case "4":
		return c.addSupplier(ctx)
	case "5":
		return c.assignSupplier(ctx)
	case "6":
		return c.sell(ctx)
	case "7":
		return c.restock(ctx)
	case "8":
		return c.save(ctx)
	case "9":
		return c.statistics(ctx)
	case "0":
		return io.EOF
	case "":
		return nil
	default:
		return domain.NewValidationError("menu choice", choice, "pick a number from 0 to 9")
	}
}

func (c *Console) listMedicines() error {
	meds := c.svc.Medicines()
	if len(meds) == 0 {
		c.printf("no medicines\n")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tPRICE\tQTY\tEXPIRES\tSUPPLIER")
	for _, m := range meds {
		supplier := "-"
		if s := m.Supplier(); s != nil {
			supplier = s.Name()
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			m.ID(), m.Name(), strconv.FormatFloat(m.Price(), 'f', 2, 64), m.Quantity(), m.ExpiryDate(), supplier)
	}
	return tw.Flush()
}

func (c *Console) listSuppliers() error {
	sups := c.svc.Suppliers()
	if len(sups) == 0 {
		c.printf("no suppliers\n")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tCONTACT\tSUPPLIES")
	for _, s := range sups {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name(), s.Contact(), strings.Join(s.SuppliedMedicines(), ", "))
	}
	return tw.Flush()
}

func (c *Console) addMedicine(ctx context.Context) error {
	name, err := c.prompt("Name: ")
	if err != nil {
		return err
	}
	price, err := c.promptFloat("Price: ", "price")
	if err != nil {
		return err
	}
	qty, err := c.promptInt("Quantity: ", "quantity")
	if err != nil {
		return err
	}
	expiry, err := c.prompt("Expiry date (YYYY-MM-DD): ")
	if err != nil {
		return err
	}

	_, msg, err := c.svc.AddMedicine(ctx, services.MedicineInput{
		Name: name, Price: price, Quantity: qty, ExpiryDate: expiry,
	})
	if err != nil {
		return err
	}
	c.printf("%s\n", msg)
	return nil
}

func (c *Console) addSupplier(ctx context.Context) error {
	name, err := c.prompt("Name: ")
	if err != nil {
		return err
	}
	contact, err := c.prompt("Contact: ")
	if err != nil {
		return err
	}
	list, err := c.prompt("Supplied medicines (comma separated, optional): ")
	if err != nil {
		return err
	}

	var supplies []string
	for _, s := range strings.Split(list, ",") {
		if s = strings.TrimSpace(s); s != "" {
			supplies = append(supplies, s)
		}
	}

	_, msg, err := c.svc.RegisterSupplier(ctx, services.SupplierInput{
		Name: name, Contact: contact, Supplies: supplies,
	})
	if err != nil {
		return err
	}
	c.printf("%s\n", msg)
	return nil
}

func (c *Console) assignSupplier(ctx context.Context) error {
	medicine, err := c.prompt("Medicine: ")
	if err != nil {
		return err
	}
	supplier, err := c.prompt("Supplier: ")
	if err != nil {
		return err
	}
	if err := c.svc.AssignSupplier(ctx, medicine, supplier); err != nil {
		return err
	}
	c.printf("%s is now supplied by %s\n", medicine, supplier)
	return nil
}

func (c *Console) sell(ctx context.Context) error {
	name, err := c.prompt("Medicine: ")
	if err != nil {
		return err
	}
	amount, err := c.promptInt("Amount: ", "amount")
	if err != nil {
		return err
	}
	if err := c.svc.Sell(ctx, name, amount); err != nil {
		return err
	}
	m, _ := c.svc.Find(name)
	c.printf("sold %d of %s, %d left\n", amount, m.Name(), m.Quantity())
	return nil
}

// restock adds stock directly, or receives a delivery when a supplier is named.
func (c *Console) restock(ctx context.Context) error {
	name, err := c.prompt("Medicine: ")
	if err != nil {
		return err
	}
	amount, err := c.promptInt("Amount: ", "amount")
	if err != nil {
		return err
	}
	supplier, err := c.prompt("Supplier (blank for none): ")
	if err != nil {
		return err
	}

	if supplier != "" {
		msg, err := c.svc.RestockFromSupplier(ctx, supplier, name, amount)
		if err != nil {
			return err
		}
		c.printf("%s\n", msg)
		return nil
	}

	if err := c.svc.Restock(ctx, name, amount); err != nil {
		return err
	}
	m, _ := c.svc.Find(name)
	c.printf("restocked %s, %d on hand\n", m.Name(), m.Quantity())
	return nil
}

func (c *Console) save(ctx context.Context) error {
	path, err := c.prompt("File path (blank for the " + c.svc.Backend() + " store): ")
	if err != nil {
		return err
	}
	if path == "" {
		if err := c.svc.Save(ctx); err != nil {
			return err
		}
		c.printf("saved %s to the %s store\n", c.svc.Name(), c.svc.Backend())
		return nil
	}
	if err := c.svc.SaveToFile(ctx, path); err != nil {
		return err
	}
	c.printf("saved %s to %s\n", c.svc.Name(), path)
	return nil
}

func (c *Console) statistics(ctx context.Context) error {
	meds := c.svc.Medicines()
	units := 0
	for _, m := range meds {
		units += m.Quantity()
	}
	c.printf("pharmacy:   %s\n", c.svc.Name())
	c.printf("medicines:  %d (%d units)\n", len(meds), units)
	c.printf("suppliers:  %d\n", len(c.svc.Suppliers()))
	c.printf("log:        %d records\n", len(c.svc.Transactions()))

	if stats := c.svc.Stats(); len(stats) > 0 {
		tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "OPERATION\tCALLS\tLAST")
		for _, s := range stats {
			_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Name, s.Calls, s.Last)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(c.opts.Health) > 0 {
		report := health.Probe(ctx, c.opts.Health)
		c.printf("health:     %s\n", report.Status)
		for _, name := range report.Names() {
			c.printf("  %-10s %s\n", name, report.Components[name])
		}
	}

	if c.opts.Metrics != nil {
		var buf bytes.Buffer
		if err := c.opts.Metrics(&buf); err != nil {
			return fmt.Errorf("render metrics: %w", err)
		}
		for _, line := range strings.Split(buf.String(), "\n") {
			if strings.HasPrefix(line, "pharmacy_") {
				c.printf("%s\n", line)
			}
		}
	}
	return nil
}

func (c *Console) prompt(label string) (string, error) {
	c.printf("%s", label)
	line, ok := c.readLine()
	if !ok {
		return "", errQuit
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) promptInt(label, field string) (int, error) {
	s, err := c.prompt(label)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, domain.NewValidationError(field, s, "must be a whole number")
	}
	return n, nil
}

func (c *Console) promptFloat(label, field string) (float64, error) {
	s, err := c.prompt(label)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, domain.NewValidationError(field, s, "must be a number")
	}
	return f, nil
}

func (c *Console) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return c.in.Text(), true
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
