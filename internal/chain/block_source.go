// Package chain 提供区块计数来源：提案的 submission_block 由宿主链的单调区块号
// 提供。接入 RPC 时读链上最新区块头，否则退化为进程内的单调计数器。
package chain

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/blues/prs/internal/config"
	"github.com/ethereum/go-ethereum/ethclient"
)

// BlockSource 区块计数来源
type BlockSource interface {
	CurrentBlock(ctx context.Context) (int64, error)
}

// Init 按配置选择区块来源
func Init(cfg config.ChainConfig) (BlockSource, error) {
	if cfg.Enabled {
		return NewRpcBlockSource(cfg.RpcUrl)
	}
	return NewLocalBlockSource(cfg.StartBlock), nil
}

// RpcBlockSource 基于以太坊 RPC 的区块来源
type RpcBlockSource struct {
	client *ethclient.Client
}

func NewRpcBlockSource(rpcUrl string) (*RpcBlockSource, error) {
	client, err := ethclient.Dial(rpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain rpc: %w", err)
	}
	return &RpcBlockSource{client: client}, nil
}

// CurrentBlock 读取最新区块头的区块号
func (s *RpcBlockSource) CurrentBlock(ctx context.Context) (int64, error) {
	header, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest header: %w", err)
	}
	return header.Number.Int64(), nil
}

// Close 关闭 RPC 连接
func (s *RpcBlockSource) Close() {
	s.client.Close()
}

// LocalBlockSource 本地单调计数器，开发/离线模式使用
type LocalBlockSource struct {
	counter atomic.Int64
}

func NewLocalBlockSource(start int64) *LocalBlockSource {
	s := &LocalBlockSource{}
	if start < 1 {
		start = 1
	}
	s.counter.Store(start - 1)
	return s
}

// CurrentBlock 每次调用递增并返回，保证严格单调
func (s *LocalBlockSource) CurrentBlock(ctx context.Context) (int64, error) {
	return s.counter.Add(1), nil
}
