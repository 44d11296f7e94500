package main

import (
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/pushchain/evm-workspace-demo/workspace/artifact"
	"github.com/pushchain/evm-workspace-demo/workspace/signer"
	"github.com/pushchain/evm-workspace-demo/workspace/txbuilder"
)

// TxOutput is the printed form of a built transaction.
type TxOutput struct {
	ChainID     uint64 `yaml:"chain_id" json:"chain_id"`
	Nonce       uint64 `yaml:"nonce" json:"nonce"`
	GasPrice    string `yaml:"gas_price" json:"gas_price"`
	Gas         string `yaml:"gas" json:"gas"`
	To          string `yaml:"to,omitempty" json:"to,omitempty"`
	Value       string `yaml:"value" json:"value"`
	Data        string `yaml:"data" json:"data"`
	SigningHash string `yaml:"signing_hash" json:"signing_hash"`
	Sender      string `yaml:"sender" json:"sender"`
	TxHash      string `yaml:"tx_hash" json:"tx_hash"`
	Raw         string `yaml:"raw" json:"raw"`
}

type buildTxFlags struct {
	abiPath      string
	bytecodePath string
	combinedPath string
	nonce        uint64
	chainID      uint64
	keyHex       string
	output       string
}

func buildTxCmd() *cobra.Command {
	flags := &buildTxFlags{}

	cmd := &cobra.Command{
		Use:   "build-tx",
		Short: "Build and sign a sandbox transaction without submitting it",
	}

	cmd.PersistentFlags().StringVar(&flags.abiPath, "abi", "./res/Random.abi", "Path to the contract ABI")
	cmd.PersistentFlags().StringVar(&flags.bytecodePath, "bytecode", "./res/Random.hex", "Path to the hex encoded creation bytecode")
	cmd.PersistentFlags().StringVar(&flags.combinedPath, "artifact", "", "Path to a combined JSON artifact (overrides --abi and --bytecode)")
	cmd.PersistentFlags().Uint64Var(&flags.nonce, "nonce", 0, "Sender nonce")
	cmd.PersistentFlags().Uint64Var(&flags.chainID, "chain-id", txbuilder.LocalChainID, "EIP-155 chain id")
	cmd.PersistentFlags().StringVar(&flags.keyHex, "key", signer.DevKeyHex, "Hex encoded signing key")
	cmd.PersistentFlags().StringVarP(&flags.output, "output", "o", OutputFormatJSON, "Output format (yaml|json)")

	cmd.AddCommand(buildDeployCmd(flags), buildCallCmd(flags))
	return cmd
}

func buildDeployCmd(flags *buildTxFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy [constructor args...]",
		Short: "Build a contract creation transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			art, err := flags.loadArtifact()
			if err != nil {
				return err
			}
			values, err := txbuilder.ParseArgs("constructor", art.Constructor().Inputs, args)
			if err != nil {
				return err
			}
			utx, err := txbuilder.BuildDeploy(art, flags.nonce, values...)
			if err != nil {
				return err
			}
			return flags.signAndPrint(cmd, utx)
		},
	}
}

func buildCallCmd(flags *buildTxFlags) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "call [method] [args...]",
		Short: "Build a call to a deployed contract",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !ethcommon.IsHexAddress(to) {
				return fmt.Errorf("invalid contract address %q", to)
			}
			art, err := flags.loadArtifact()
			if err != nil {
				return err
			}
			fn, err := art.Function(args[0])
			if err != nil {
				return err
			}
			values, err := txbuilder.ParseArgs(fn.Sig, fn.Inputs, args[1:])
			if err != nil {
				return err
			}
			utx, err := txbuilder.BuildCall(art, ethcommon.HexToAddress(to), flags.nonce, fn.Sig, values...)
			if err != nil {
				return err
			}
			return flags.signAndPrint(cmd, utx)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Contract address")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (f *buildTxFlags) loadArtifact() (*artifact.ContractArtifact, error) {
	if f.combinedPath != "" {
		return artifact.LoadCombined(f.combinedPath)
	}
	return artifact.Load(f.abiPath, f.bytecodePath)
}

func (f *buildTxFlags) signAndPrint(cmd *cobra.Command, utx *txbuilder.UnsignedTransaction) error {
	if f.chainID == 0 {
		return fmt.Errorf("chain id must not be zero")
	}
	utx.ChainID = f.chainID

	s, err := signer.FromHex(f.keyHex)
	if err != nil {
		return err
	}
	signed, err := s.Sign(utx)
	if err != nil {
		return err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode signed transaction: %w", err)
	}

	out := TxOutput{
		ChainID:     utx.ChainID,
		Nonce:       utx.Nonce,
		GasPrice:    utx.GasPrice.String(),
		Gas:         fmt.Sprintf("%d", utx.Gas),
		Value:       utx.Value.String(),
		Data:        hexutil.Encode(utx.Data),
		SigningHash: utx.SigningHash().Hex(),
		Sender:      s.Address().Hex(),
		TxHash:      signed.Hash().Hex(),
		Raw:         hexutil.Encode(raw),
	}
	if utx.To != nil {
		out.To = utx.To.Hex()
	}
	return printOutput(cmd.OutOrStdout(), out, f.output)
}
