package chainio

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/most-network/bridge/core"
	"github.com/most-network/bridge/relayer"
)

// crosschainTransferRequestABI and receiveRequestABI pin just enough of
// the peer EVM bridge's ABI — its event schema and receiveRequest
// signature — to decode the event and encode the call.
const crosschainTransferRequestABI = `[{
	"anonymous": false,
	"inputs": [
		{"indexed": true,  "name": "committeeId",          "type": "uint256"},
		{"indexed": false, "name": "destTokenAddress",      "type": "bytes32"},
		{"indexed": false, "name": "amount",                "type": "uint256"},
		{"indexed": true,  "name": "destReceiverAddress",   "type": "bytes32"},
		{"indexed": false, "name": "requestNonce",          "type": "uint256"}
	],
	"name": "CrosschainTransferRequest",
	"type": "event"
}]`

const receiveRequestABI = `[{
	"inputs": [
		{"name": "requestHash",          "type": "bytes32"},
		{"name": "committeeId",          "type": "uint256"},
		{"name": "destTokenAddress",     "type": "bytes32"},
		{"name": "amount",               "type": "uint256"},
		{"name": "destReceiverAddress",  "type": "bytes32"},
		{"name": "requestNonce",         "type": "uint256"}
	],
	"name": "receiveRequest",
	"outputs": [],
	"stateMutability": "nonpayable",
	"type": "function"
}]`

// pollInterval is how often the adapter checks for newly mined blocks
// when grouping logs into per-block batches; go-ethereum's own
// SubscribeFilterLogs delivers logs individually, so block-boundary
// detection is the adapter's responsibility.
const pollInterval = 3 * time.Second

// EthereumChain is the concrete Ethereum-side adapter: it watches
// CrosschainTransferRequest logs over a wss subscription and submits
// receiveRequest transactions signed by an injected private key.
type EthereumChain struct {
	client   *ethclient.Client
	contract common.Address
	key      *ecdsa.PrivateKey
	chainID  *big.Int

	eventABI abi.ABI
	callABI  abi.ABI

	log *logrus.Entry
}

// NewEthereumChain dials wssURL and returns an adapter for the bridge
// contract at contractAddr, signing outgoing transactions with key.
func NewEthereumChain(ctx context.Context, wssURL, contractAddr string, key *ecdsa.PrivateKey, log *logrus.Entry) (*EthereumChain, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	client, err := ethclient.DialContext(ctx, wssURL)
	if err != nil {
		return nil, fmt.Errorf("dial eth node: %w", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}
	eventABI, err := abi.JSON(strings.NewReader(crosschainTransferRequestABI))
	if err != nil {
		return nil, fmt.Errorf("parse event abi: %w", err)
	}
	callABI, err := abi.JSON(strings.NewReader(receiveRequestABI))
	if err != nil {
		return nil, fmt.Errorf("parse call abi: %w", err)
	}
	return &EthereumChain{
		client:   client,
		contract: common.HexToAddress(contractAddr),
		key:      key,
		chainID:  chainID,
		eventABI: eventABI,
		callABI:  callABI,
		log:      log.WithField("chain", "ethereum"),
	}, nil
}

func (e *EthereumChain) ChainName() string { return "ethereum" }

// Subscribe watches CrosschainTransferRequest logs from fromBlock and
// groups them into per-block batches once each new head confirms a
// block has no further logs pending.
func (e *EthereumChain) Subscribe(ctx context.Context, fromBlock uint64) (<-chan relayer.BlockBatch, <-chan error) {
	out := make(chan relayer.BlockBatch, 16)
	errs := make(chan error, 1)

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{e.contract},
		Topics:    [][]common.Hash{{e.eventABI.Events["CrosschainTransferRequest"].ID}},
	}
	logsCh := make(chan types.Log, 64)
	sub, err := e.client.SubscribeFilterLogs(ctx, query, logsCh)
	if err != nil {
		errs <- fmt.Errorf("subscribe filter logs: %w", err)
		close(out)
		close(errs)
		return out, errs
	}

	go e.pump(ctx, sub, logsCh, fromBlock, out, errs)
	return out, errs
}

// pump groups incoming logs by block number, flushing a batch whenever
// the chain head advances past the oldest pending block and on a
// pollInterval heartbeat so a quiet block (zero events) still advances
// the cursor.
func (e *EthereumChain) pump(ctx context.Context, sub ethereum.Subscription, logsCh <-chan types.Log, fromBlock uint64, out chan<- relayer.BlockBatch, errs chan<- error) {
	defer sub.Unsubscribe()
	defer close(out)
	defer close(errs)

	pending := map[uint64][]relayer.TransferEvent{}
	lastSealed := fromBlock
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	flush := func(upTo uint64) {
		if upTo < lastSealed {
			return
		}
		for b := lastSealed; b <= upTo; b++ {
			ev, ok := pending[b]
			if !ok && b != upTo {
				continue
			}
			delete(pending, b)
			select {
			case out <- relayer.BlockBatch{Block: b, Events: ev}:
			case <-ctx.Done():
				return
			}
		}
		lastSealed = upTo + 1
	}

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-sub.Err():
			if err != nil {
				errs <- fmt.Errorf("log subscription: %w", err)
			}
			return
		case lg := <-logsCh:
			ev, err := e.decode(lg)
			if err != nil {
				e.log.WithError(err).Warn("failed to decode log, skipping")
				continue
			}
			pending[lg.BlockNumber] = append(pending[lg.BlockNumber], ev)
		case <-ticker.C:
			head, err := e.client.BlockNumber(ctx)
			if err != nil {
				e.log.WithError(err).Warn("failed to fetch head block number")
				continue
			}
			if head > 0 {
				flush(head - 1)
			}
		}
	}
}

func (e *EthereumChain) decode(lg types.Log) (relayer.TransferEvent, error) {
	var decoded struct {
		DestTokenAddress    [32]byte
		Amount              *big.Int
		RequestNonce        *big.Int
	}
	if err := e.eventABI.UnpackIntoInterface(&decoded, "CrosschainTransferRequest", lg.Data); err != nil {
		return relayer.TransferEvent{}, err
	}
	if len(lg.Topics) < 3 {
		return relayer.TransferEvent{}, fmt.Errorf("unexpected topic count: %d", len(lg.Topics))
	}
	committeeID := new(big.Int).SetBytes(lg.Topics[1].Bytes()).Uint64()
	var destReceiver core.AccountID
	copy(destReceiver[:], lg.Topics[2].Bytes())

	return relayer.TransferEvent{
		Block:        lg.BlockNumber,
		CommitteeID:  committeeID,
		DestToken:    decoded.DestTokenAddress,
		Amount:       core.U128FromBigInt(decoded.Amount),
		DestReceiver: destReceiver,
		Nonce:        core.U128FromBigInt(decoded.RequestNonce),
	}, nil
}

// SubmitVote calls receiveRequest on the peer EVM bridge, signed by the
// adapter's key. A revert is surfaced as a transient error unless its
// reason string matches one of the bridge's own permanent-failure
// sentinels, which the handler distinguishes by errors.Is against
// core.ErrHashDoesNotMatchData / core.ErrNotInCommittee.
func (e *EthereumChain) SubmitVote(ctx context.Context, v relayer.VoteRequest) error {
	data, err := e.callABI.Pack("receiveRequest",
		v.Hash,
		new(big.Int).SetUint64(v.CommitteeID),
		[32]byte(v.DestToken),
		v.Amount.BigInt(),
		[32]byte(v.DestReceiver),
		v.Nonce.BigInt(),
	)
	if err != nil {
		return fmt.Errorf("encode receiveRequest call: %w", err)
	}

	from := crypto.PubkeyToAddress(e.key.PublicKey)
	nonce, err := e.client.PendingNonceAt(ctx, from)
	if err != nil {
		return fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("suggest gas price: %w", err)
	}
	gasLimit, err := e.client.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &e.contract, Data: data})
	if err != nil {
		return classifyRevert(err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &e.contract,
		Value:    big.NewInt(0),
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(e.chainID), e.key)
	if err != nil {
		return fmt.Errorf("sign receiveRequest tx: %w", err)
	}
	if err := e.client.SendTransaction(ctx, signed); err != nil {
		return classifyRevert(err)
	}
	return nil
}

// classifyRevert maps a revert reason string onto the bridge's own
// sentinel errors where recognizable, so the handler's retry logic can
// treat configuration mistakes as permanent regardless of which chain
// they were raised on.
func classifyRevert(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "HashDoesNotMatchData"):
		return fmt.Errorf("%s: %w", msg, core.ErrHashDoesNotMatchData)
	case strings.Contains(msg, "NotInCommittee"):
		return fmt.Errorf("%s: %w", msg, core.ErrNotInCommittee)
	default:
		return err
	}
}
