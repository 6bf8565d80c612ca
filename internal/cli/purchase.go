package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/api"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
	grpcserver "github.com/spbu-ds-practicum-2025/payment-network/internal/grpc"
)

const requestTimeout = 30 * time.Second

func addServerFlag(cmd *cobra.Command) {
	cmd.Flags().String("addr", "localhost:50051", "Address of the paynet gRPC server")
}

func dial(cmd *cobra.Command) (*grpcserver.Client, func(), error) {
	addr, _ := cmd.Flags().GetString("addr")
	conn, err := gogrpc.NewClient(addr, gogrpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return grpcserver.NewClient(conn), func() { _ = conn.Close() }, nil
}

func newPurchaseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purchase",
		Short: "Route a purchase through the network",
		RunE:  runPurchase,
	}
	addServerFlag(cmd)
	cmd.Flags().String("payment-id", "", "Payment identifier (generated when empty)")
	cmd.Flags().String("account", "", "Customer account id")
	cmd.Flags().String("merchant", "", "Merchant id")
	cmd.Flags().String("amount", "", "Amount with up to 2 decimal places")
	cmd.Flags().String("currency", "USD", "ISO 4217 currency code")
	cmd.Flags().String("acquirer", "", "Preferred acquirer bank code")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("merchant")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// purchaseRequestFromFlags validates flags before any connection is made.
func purchaseRequestFromFlags(cmd *cobra.Command) (api.PurchaseRequest, error) {
	flags := cmd.Flags()
	paymentID, _ := flags.GetString("payment-id")
	account, _ := flags.GetString("account")
	merchant, _ := flags.GetString("merchant")
	rawAmount, _ := flags.GetString("amount")
	currency, _ := flags.GetString("currency")
	acquirer, _ := flags.GetString("acquirer")

	if _, err := uuid.Parse(account); err != nil {
		return api.PurchaseRequest{}, fmt.Errorf("invalid --account: %w", err)
	}
	amount, err := domain.ParseAmount(rawAmount)
	if err != nil {
		return api.PurchaseRequest{}, fmt.Errorf("invalid --amount: %w", err)
	}
	if err := domain.ValidateCurrencyCode(currency); err != nil {
		return api.PurchaseRequest{}, fmt.Errorf("invalid --currency: %w", err)
	}
	if paymentID == "" {
		paymentID = "PAY-" + uuid.NewString()
	}

	return api.PurchaseRequest{
		PaymentID:        paymentID,
		AccountID:        account,
		MerchantID:       merchant,
		Amount:           amount,
		Currency:         currency,
		AcquirerBankCode: acquirer,
	}, nil
}

func runPurchase(cmd *cobra.Command, _ []string) error {
	req, err := purchaseRequestFromFlags(cmd)
	if err != nil {
		return err
	}

	client, closeConn, err := dial(cmd)
	if err != nil {
		return err
	}
	defer closeConn()

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	resp, err := client.ProcessNetworkTransaction(ctx, req)
	if err != nil {
		return fmt.Errorf("purchase failed: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), resp)
}

func newTransactionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transaction",
		Short: "Inspect network transactions",
	}

	show := &cobra.Command{
		Use:   "show [payment-id]",
		Short: "Show the latest attempt of a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeConn, err := dial(cmd)
			if err != nil {
				return err
			}
			defer closeConn()

			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			txn, err := client.GetNetworkTransaction(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), txn)
		},
	}
	addServerFlag(show)

	reverse := &cobra.Command{
		Use:   "reverse [settlement-id]",
		Short: "Reverse a settlement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeConn, err := dial(cmd)
			if err != nil {
				return err
			}
			defer closeConn()

			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			settlement, err := client.ReverseSettlement(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), settlement)
		},
	}
	addServerFlag(reverse)

	cmd.AddCommand(show, reverse)
	return cmd
}
