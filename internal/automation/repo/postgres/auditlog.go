package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

type auditLogRepo struct{ tx *sqlx.Tx }

const auditLogColumns = `id, session_id, work_item_id, message, level, logger_name, module, function_name, line_number, exception_type, exception_message, exception_trace, structured_data, event_timestamp`

func (r *auditLogRepo) Create(ctx context.Context, a domain.AuditLog) (domain.AuditLog, error) {
	if a.ID == "" {
		a.ID = newID()
	}
	var structuredData []byte
	if a.StructuredData != nil {
		data, err := json.Marshal(a.StructuredData)
		if err != nil {
			return domain.AuditLog{}, err
		}
		structuredData = data
	}

	row := r.tx.QueryRowContext(ctx, `
		INSERT INTO audit_logs (id, session_id, work_item_id, message, level, logger_name, module, function_name, line_number, exception_type, exception_message, exception_trace, structured_data, event_timestamp)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,now())
		RETURNING event_timestamp
	`, a.ID, a.SessionID, a.WorkItemID, a.Message, a.Level, a.LoggerName, a.Module, a.FunctionName, a.LineNumber, a.ExceptionType, a.ExceptionMsg, a.ExceptionTrace, structuredData)
	if err := row.Scan(&a.EventTimestamp); err != nil {
		return domain.AuditLog{}, err
	}
	return a, nil
}

func (r *auditLogRepo) GetAll(ctx context.Context) ([]domain.AuditLog, error) {
	rows, err := r.tx.QueryContext(ctx, `SELECT `+auditLogColumns+` FROM audit_logs ORDER BY event_timestamp ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.AuditLog, 0)
	for rows.Next() {
		var a domain.AuditLog
		var sessionID, workItemID sql.NullString
		var lineNumber sql.NullInt32
		var exceptionType, exceptionMsg, exceptionTrace sql.NullString
		var structuredData []byte
		if err := rows.Scan(&a.ID, &sessionID, &workItemID, &a.Message, &a.Level, &a.LoggerName, &a.Module, &a.FunctionName, &lineNumber, &exceptionType, &exceptionMsg, &exceptionTrace, &structuredData, &a.EventTimestamp); err != nil {
			return nil, err
		}
		if sessionID.Valid {
			a.SessionID = &sessionID.String
		}
		if workItemID.Valid {
			a.WorkItemID = &workItemID.String
		}
		if lineNumber.Valid {
			n := int(lineNumber.Int32)
			a.LineNumber = &n
		}
		if exceptionType.Valid {
			a.ExceptionType = &exceptionType.String
		}
		if exceptionMsg.Valid {
			a.ExceptionMsg = &exceptionMsg.String
		}
		if exceptionTrace.Valid {
			a.ExceptionTrace = &exceptionTrace.String
		}
		if len(structuredData) > 0 {
			if err := json.Unmarshal(structuredData, &a.StructuredData); err != nil {
				return nil, err
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
