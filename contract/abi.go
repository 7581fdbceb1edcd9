package contract

// JSON ABIs for the three on-chain surfaces the client talks to: the staged
// public sale, the ERC-20 stablecoins, and the Chainlink native/USD feed.
// Only the entries the client calls are carried.

const publicSaleABI = `[
  {"type":"function","name":"buyWithNative","stateMutability":"payable","inputs":[{"name":"rcxAmount18","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"buyWithUSDT","stateMutability":"nonpayable","inputs":[{"name":"rcxAmount18","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"buyWithUSDC","stateMutability":"nonpayable","inputs":[{"name":"rcxAmount18","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"getCurrentStage","stateMutability":"view","inputs":[],"outputs":[{"name":"stageIndex","type":"uint256"},{"name":"priceUsd6","type":"uint256"},{"name":"tokenAllocation","type":"uint256"},{"name":"tokensSold","type":"uint256"},{"name":"tokensRemaining","type":"uint256"}]},
  {"type":"function","name":"getStage","stateMutability":"view","inputs":[{"name":"stageIndex","type":"uint256"}],"outputs":[{"name":"priceUsd6","type":"uint256"},{"name":"tokenAllocation","type":"uint256"},{"name":"tokensSold","type":"uint256"},{"name":"tokensRemaining","type":"uint256"}]},
  {"type":"function","name":"getTotalStages","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"calculateCostAcrossStages","stateMutability":"view","inputs":[{"name":"rcxAmount18","type":"uint256"}],"outputs":[{"name":"totalCostUsd6","type":"uint256"},{"name":"canPurchase","type":"bool"}]},
  {"type":"function","name":"nativeCost","stateMutability":"view","inputs":[{"name":"rcxAmount18","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"usdToNative","stateMutability":"view","inputs":[{"name":"usdAmount6","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"saleActive","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"totalSold","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"totalClaimed","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"maxPerWallet","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"purchased","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"claimed","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"tgeTimestamp","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"tokenPriceUsd6","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"priceStalenessTolerance","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"unclaimedLiability","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"paused","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"pause","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"unpause","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"startSale","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"stopSale","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"setTokenPriceUsd6","stateMutability":"nonpayable","inputs":[{"name":"usd6","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"setMaxPerWallet","stateMutability":"nonpayable","inputs":[{"name":"maxAmount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"setTgeTimestamp","stateMutability":"nonpayable","inputs":[{"name":"ts","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"setPriceStalenessTolerance","stateMutability":"nonpayable","inputs":[{"name":"tolerance","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"fundRCX","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"initializeStages","stateMutability":"nonpayable","inputs":[{"name":"_pricesUsd6","type":"uint256[]"},{"name":"_tokenAllocations","type":"uint256[]"}],"outputs":[]},
  {"type":"function","name":"withdrawProceeds","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"}],"outputs":[]},
  {"type":"function","name":"recoverTokens","stateMutability":"nonpayable","inputs":[{"name":"tokenAddr","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"event","name":"Purchased","inputs":[{"name":"buyer","type":"address","indexed":true},{"name":"rcxAmount","type":"uint256","indexed":false},{"name":"paymentToken","type":"address","indexed":false},{"name":"paymentAmount","type":"uint256","indexed":false}]},
  {"type":"event","name":"SaleStarted","inputs":[]},
  {"type":"event","name":"SaleStopped","inputs":[]},
  {"type":"event","name":"PriceUpdated","inputs":[{"name":"usd6","type":"uint256","indexed":false}]},
  {"type":"event","name":"MaxPerWalletUpdated","inputs":[{"name":"maxAmount","type":"uint256","indexed":false}]},
  {"type":"event","name":"TgeTimestampUpdated","inputs":[{"name":"ts","type":"uint256","indexed":false}]},
  {"type":"event","name":"RcxFunded","inputs":[{"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"ProceedsWithdrawn","inputs":[{"name":"to","type":"address","indexed":true},{"name":"usdtAmount","type":"uint256","indexed":false},{"name":"nativeAmount","type":"uint256","indexed":false}]},
  {"type":"event","name":"TokensRecovered","inputs":[{"name":"token","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]}
]`

const erc20ABI = `[
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

const chainlinkABI = `[
  {"type":"function","name":"latestRoundData","stateMutability":"view","inputs":[],"outputs":[{"name":"roundId","type":"uint80"},{"name":"answer","type":"int256"},{"name":"startedAt","type":"uint256"},{"name":"updatedAt","type":"uint256"},{"name":"answeredInRound","type":"uint80"}]},
  {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`
