package store

// Schema creates the ledger tables. Amounts are stored as exact decimal
// strings; dates as "YYYY-MM-DD".
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
    company_id  TEXT NOT NULL,
    code        INTEGER NOT NULL,
    name        TEXT NOT NULL,
    category    TEXT NOT NULL,
    side        TEXT NOT NULL,
    parent_code INTEGER NOT NULL DEFAULT 0,
    active      INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (company_id, code)
);

CREATE TABLE IF NOT EXISTS rules (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    company_id   TEXT NOT NULL,
    pattern      TEXT NOT NULL,
    kind         TEXT NOT NULL,
    priority     INTEGER NOT NULL,
    account_code INTEGER NOT NULL,
    usage_count  INTEGER NOT NULL DEFAULT 0,
    active       INTEGER NOT NULL DEFAULT 1,
    UNIQUE (company_id, pattern, kind)
);

CREATE INDEX IF NOT EXISTS idx_rules_company ON rules(company_id, active);

-- Normalized bank-statement feed. Read-only once loaded; the fingerprint
-- makes re-importing the same statement a no-op.
CREATE TABLE IF NOT EXISTS transactions (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    company_id      TEXT NOT NULL,
    period_id       TEXT NOT NULL,
    date            TEXT NOT NULL,
    description     TEXT NOT NULL,
    debit           TEXT NOT NULL DEFAULT '0',
    credit          TEXT NOT NULL DEFAULT '0',
    running_balance TEXT NOT NULL DEFAULT '0',
    fingerprint     TEXT NOT NULL,
    UNIQUE (company_id, fingerprint)
);

CREATE INDEX IF NOT EXISTS idx_transactions_period
    ON transactions(company_id, period_id, date);

CREATE TABLE IF NOT EXISTS classifications (
    transaction_id INTEGER PRIMARY KEY
        REFERENCES transactions(id),
    account_code   INTEGER NOT NULL DEFAULT 0,
    source         TEXT NOT NULL DEFAULT 'none',
    rule_id        INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS journal_entries (
    ref                   TEXT NOT NULL,
    company_id            TEXT NOT NULL,
    period_id             TEXT NOT NULL,
    date                  TEXT NOT NULL,
    description           TEXT NOT NULL,
    origin                TEXT NOT NULL,
    source_transaction_id INTEGER,
    PRIMARY KEY (company_id, ref)
);

-- At most one entry per source transaction.
CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_source
    ON journal_entries(company_id, source_transaction_id)
    WHERE source_transaction_id IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_entries_period
    ON journal_entries(company_id, period_id, origin);

CREATE TABLE IF NOT EXISTS journal_entry_lines (
    id                    INTEGER PRIMARY KEY AUTOINCREMENT,
    company_id            TEXT NOT NULL,
    entry_ref             TEXT NOT NULL,
    account_code          INTEGER NOT NULL,
    debit                 TEXT NOT NULL DEFAULT '0',
    credit                TEXT NOT NULL DEFAULT '0',
    counterparty          TEXT NOT NULL DEFAULT '',
    source_transaction_id INTEGER,
    FOREIGN KEY (company_id, entry_ref)
        REFERENCES journal_entries(company_id, ref) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_lines_account
    ON journal_entry_lines(company_id, account_code);

CREATE TABLE IF NOT EXISTS periods (
    company_id TEXT NOT NULL,
    period_id  TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'open',
    PRIMARY KEY (company_id, period_id)
);

CREATE TABLE IF NOT EXISTS audit_log (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    logged_at  TEXT NOT NULL,
    company_id TEXT NOT NULL,
    period_id  TEXT NOT NULL DEFAULT '',
    operation  TEXT NOT NULL,
    details    TEXT NOT NULL DEFAULT ''
);
`
