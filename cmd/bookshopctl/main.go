// Command bookshopctl runs maintenance tasks against the bookshop database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ahinestrog/bookshop/internal/catalog"
	"github.com/ahinestrog/bookshop/internal/config"
	"github.com/ahinestrog/bookshop/internal/events"
	"github.com/ahinestrog/bookshop/internal/logging"
	"github.com/ahinestrog/bookshop/internal/money"
	"github.com/ahinestrog/bookshop/internal/order"
	"github.com/ahinestrog/bookshop/internal/storage"
	"github.com/ahinestrog/bookshop/internal/user"
)

const usage = `usage: bookshopctl <command> [flags]

commands:
  add-user     -email -password [-first -last -address] [-admin]
  seed         load the demo catalog into an empty database
  list-orders  -user <id>`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(os.Stderr, "console").Level(zerolog.WarnLevel)

	ctx := context.Background()
	db, err := storage.Open(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := storage.Migrate(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "add-user":
		err = addUser(ctx, db, logger, args)
	case "seed":
		err = seed(ctx, db, logger)
	case "list-orders":
		err = listOrders(ctx, db, logger, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addUser(ctx context.Context, db *sqlx.DB, logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("add-user", flag.ExitOnError)
	email := fs.String("email", "", "email of the new user")
	password := fs.String("password", "", "password of the new user")
	first := fs.String("first", "Bookshop", "first name")
	last := fs.String("last", "User", "last name")
	address := fs.String("address", "", "shipping address")
	admin := fs.Bool("admin", false, "grant the ADMIN role")
	_ = fs.Parse(args)

	if *email == "" || *password == "" {
		fs.PrintDefaults()
		return fmt.Errorf("email and password are required")
	}

	users := user.NewService(db, events.Nop{}, logger)
	var u *user.User
	var err error
	if *admin {
		u, err = users.EnsureAdmin(ctx, *email, *password)
	} else {
		u, err = users.Register(ctx, user.RegisterInput{
			Email:           *email,
			Password:        *password,
			FirstName:       *first,
			LastName:        *last,
			ShippingAddress: *address,
		})
	}
	if err != nil {
		return err
	}
	fmt.Printf("user %d (%s) ready with roles %v\n", u.ID, u.Email, u.Roles)
	return nil
}

func seed(ctx context.Context, db *sqlx.DB, logger zerolog.Logger) error {
	n, err := catalog.NewService(db, events.Nop{}, logger).SeedDemo(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Println("catalog is not empty, nothing seeded")
		return nil
	}
	fmt.Printf("seeded %d books\n", n)
	return nil
}

func listOrders(ctx context.Context, db *sqlx.DB, logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("list-orders", flag.ExitOnError)
	userID := fs.Int64("user", 0, "id of the user whose orders to list")
	_ = fs.Parse(args)
	if *userID <= 0 {
		fs.PrintDefaults()
		return fmt.Errorf("-user is required")
	}

	orders, err := order.NewService(db, events.Nop{}, logger).ListOrders(ctx, *userID)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("no orders")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREFERENCE\tDATE\tSTATUS\tITEMS\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
			o.ID, o.Reference, o.OrderDate.Format("2006-01-02 15:04"), o.Status, len(o.Lines), money.Format(o.Total))
	}
	return tw.Flush()
}
