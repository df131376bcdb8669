package sqlinline

// assetColumns is shared by every asset select so repo scanning stays in one
// shape. Nullable columns are coalesced to their zero values.
const assetColumns = `
  id,
  name,
  coalesce(description, ''),
  coalesce(asset_type, ''),
  file_ref,
  coalesce(original_file_name, ''),
  file_size,
  coalesce(mime_type, ''),
  coalesce(width, 0),
  coalesce(height, 0),
  coalesce(provider, ''),
  coalesce(prompt, ''),
  coalesce(params, '{}'::jsonb),
  coalesce(tags, '{}'::text[]),
  status,
  coalesce(world_id, ''),
  coalesce(metadata, '{}'::jsonb),
  created_at`

const QSelectAssetsByIDs = `--sql 7c1f36b4-9d0e-4f3a-8c52-a14f07e6b9d1
select` + assetColumns + `
from assets
where id = any($1::uuid[]);
`

const QSelectAssetByID = `--sql 3e8d21aa-54c7-4b19-9f04-6d2c8b1e75f3
select` + assetColumns + `
from assets
where id = $1::uuid
limit 1;
`

const QSelectAssetsForCleanup = `--sql b5309c7e-12d8-4a66-bf91-04e7a3c25d88
select` + assetColumns + `
from assets
where (nullif($1::text, '') is null or world_id = $1::text)
  and (nullif($2::text, '') is null or status = $2::text)
  and ($3::timestamptz is null or created_at < $3::timestamptz)
order by created_at asc;
`

const QDeleteAsset = `--sql 91a4de02-77cb-4e5f-a3b6-58f19c0d24ea
delete from assets
where id = $1::uuid;
`
